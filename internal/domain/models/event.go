package models

import "time"

type (
	// Project groups error events and carries the repository configuration
	// used to fetch source context for them.
	Project struct {
		ID         int64
		ProjectKey string
		Name       string
		RepoConfig *RepoConfig
	}

	// ErrorEvent is one ingested application error.
	ErrorEvent struct {
		ID         int64
		ProjectID  int64
		Message    string
		StackTrace string
		StatusCode int
		CreatedAt  time.Time

		Project *Project
	}
)
