package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. Users quote the
// code; support staff look it up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Line too long: A line exceeds the maximum length
//	          Patterns: "token too long"
//	FILE003 - Invalid upload: The upload could not be read as multipart form data
//	          Patterns: "multipart"
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//
// # Extraction Errors (EXT001-EXT099)
//
//	EXT001 - System busy: Too many extractions in progress
//	         Patterns: "too many concurrent extractions"
//	EXT002 - Not found: Extraction not found
//	         Patterns: "extraction not found"
//	EXT003 - Bad ID: Extraction ID is malformed
//	         Patterns: "invalid extraction id"
//	EXT004 - Request cancelled
//	         Patterns: "context canceled"
//	EXT005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application logs for the
// technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the export into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the export into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "token too long",
		msg: UserMessage{
			Message: "A line in the file exceeds the maximum length",
			Action:  "Check that the file is a TBE export with normal line endings",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select at least one TBE file to extract",
			Code:    "FILE004",
		},
	},
	{
		pattern: "multipart",
		msg: UserMessage{
			Message: "The upload could not be read",
			Action:  "Send the files as multipart/form-data in fields named \"file\"",
			Code:    "FILE003",
		},
	},

	// Extraction errors
	{
		pattern: "too many concurrent extractions",
		msg: UserMessage{
			Message: "System busy",
			Action:  "Too many extractions are running. Please wait a moment and try again",
			Code:    "EXT001",
		},
	},
	{
		pattern: "extraction not found",
		msg: UserMessage{
			Message: "Extraction not found",
			Action:  "It may have been evicted from history. Please extract the files again",
			Code:    "EXT002",
		},
	},
	{
		pattern: "invalid extraction id",
		msg: UserMessage{
			Message: "Invalid extraction ID",
			Action:  "Check the link or ID you used",
			Code:    "EXT003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "EXT004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try fewer or smaller files, or try again later",
			Code:    "EXT005",
		},
	},

	// Database errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
