// Package core provides the extraction service behind the HTTP API.
//
// It contains the domain logic independent of any transport: callers hand
// the [Service] a list of uploads and get back an [Extraction] holding the
// concatenated records of every TBE table found, per-file results, and a
// stable ID under which the extraction can be fetched later.
//
// # Extraction Flow
//
//  1. Client calls [Service.Extract] with one or more [Upload] values
//  2. A slot is taken from the [Limiter]; callers wait up to the configured
//     maximum before failing with [ErrTooManyExtractions]
//  3. Each upload is streamed through a size-limited counting reader that
//     fingerprints its bytes with xxhash, and parsed by tbe.Parse
//  4. Records are concatenated in upload order; a failing upload is recorded
//     with its error and contributes no records
//  5. The extraction is saved to the configured [ExtractionStore]
//
// # Storage
//
// Two stores are provided. [MemoryStore] keeps the most recent extractions
// in process. [PostgresStore] persists extractions and their records through
// a pgx connection pool, loading records with COPY.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE004: File errors (size, line length, form, missing input)
//   - EXT001-EXT005: Extraction errors (busy, not found, cancelled)
//   - DB004-DB006: Database errors (connections, timeouts)
//   - RATE001: Rate limiting
//   - ERR000: Fallback
package core
