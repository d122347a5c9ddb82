// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"errors"
	"fmt"
)

// Kind classifies a backup failure. The HTTP layer maps kinds to status
// codes; the kind's Code is the stable error code in API responses.
type Kind int

const (
	KindUnknown Kind = iota
	KindInsufficientPermissions
	KindInvalidFilename
	KindArchiveNotFound
	KindNoFileProvided
	KindInvalidFile
	KindInvalidBackupFile
	KindInvalidBackupStructure
	KindOperationInProgress
	KindExportFailed
	KindArchiveCreationFailed
	KindImportFailed
	KindDirectoryInitFailed
)

var kindCodes = map[Kind]string{
	KindUnknown:                 "INTERNAL_ERROR",
	KindInsufficientPermissions: "INSUFFICIENT_PERMISSIONS",
	KindInvalidFilename:         "INVALID_FILENAME",
	KindArchiveNotFound:         "BACKUP_NOT_FOUND",
	KindNoFileProvided:          "NO_FILE_PROVIDED",
	KindInvalidFile:             "INVALID_FILE",
	KindInvalidBackupFile:       "INVALID_BACKUP_FILE",
	KindInvalidBackupStructure:  "INVALID_BACKUP_STRUCTURE",
	KindOperationInProgress:     "OPERATION_IN_PROGRESS",
	KindExportFailed:            "EXPORT_FAILED",
	KindArchiveCreationFailed:   "ARCHIVE_CREATION_FAILED",
	KindImportFailed:            "IMPORT_FAILED",
	KindDirectoryInitFailed:     "DIRECTORY_INIT_FAILED",
}

// Code returns the stable API error code for k.
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindUnknown]
}

func (k Kind) String() string {
	return k.Code()
}

// Sentinel errors for errors.Is comparisons. Any *Error of the same kind
// matches its sentinel.
var (
	ErrInsufficientPermissions = &Error{Kind: KindInsufficientPermissions, Message: "Only super administrators can manage backups"}
	ErrInvalidFilename         = &Error{Kind: KindInvalidFilename, Message: "Invalid filename"}
	ErrArchiveNotFound         = &Error{Kind: KindArchiveNotFound, Message: "Backup file not found"}
	ErrNoFileProvided          = &Error{Kind: KindNoFileProvided, Message: "No backup file provided"}
	ErrInvalidFile             = &Error{Kind: KindInvalidFile, Message: "Invalid file"}
	ErrInvalidBackupFile       = &Error{Kind: KindInvalidBackupFile, Message: "Invalid backup file format"}
	ErrInvalidBackupStructure  = &Error{Kind: KindInvalidBackupStructure, Message: "Invalid backup file structure"}
	ErrOperationInProgress     = &Error{Kind: KindOperationInProgress, Message: "Another backup operation is in progress"}
	ErrExportFailed            = &Error{Kind: KindExportFailed, Message: "Failed to export data"}
	ErrArchiveCreationFailed   = &Error{Kind: KindArchiveCreationFailed, Message: "Failed to create archive"}
	ErrImportFailed            = &Error{Kind: KindImportFailed, Message: "Failed to import data"}
	ErrDirectoryInitFailed     = &Error{Kind: KindDirectoryInitFailed, Message: "Failed to create backup directories"}
)

// Error is a classified backup failure. Message is safe to show to callers;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// newError builds a classified error around an optional cause.
func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-safe message of err. Unclassified errors get a
// generic message so internal detail does not leak.
func MessageOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return "Internal server error"
}

// DetailOf returns the underlying cause message for engine failures, which
// operators need to diagnose a failed export, packaging or import. Other
// kinds return "".
func DetailOf(err error) string {
	var be *Error
	if !errors.As(err, &be) || be.Err == nil {
		return ""
	}
	switch be.Kind {
	case KindExportFailed, KindArchiveCreationFailed, KindImportFailed, KindDirectoryInitFailed, KindInvalidBackupFile:
		return be.Err.Error()
	default:
		return ""
	}
}
