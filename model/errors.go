package model

import "errors"

var (
	ErrContentNotFound     = errors.New("content not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrContentAccessDenied = errors.New("content access denied")
)
