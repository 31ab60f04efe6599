package task

import "errors"

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrForbidden            = errors.New("access denied")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrParentNotFound       = errors.New("parent task not found")
	ErrSelfParent           = errors.New("task cannot be its own parent")
	ErrFileTooLarge         = errors.New("file exceeds the maximum allowed size")
	ErrFileTypeNotAllowed   = errors.New("file type not allowed")
	ErrArchivedTaskReadOnly = errors.New("archived tasks cannot be modified")
)
