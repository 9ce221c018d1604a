package models

import (
	"time"
)

// Tag is the label attached to a candidate pair
type Tag string

const (
	TagPositive Tag = "positive"
	TagNegative Tag = "negative"
)

// Valid reports whether the tag is one of the two known labels
func (t Tag) Valid() bool {
	return t == TagPositive || t == TagNegative
}

// CommitRef identifies a commit and the metadata needed for window queries.
// Timestamp is the committer time and keeps its original zone.
type CommitRef struct {
	Hash      string    `json:"hash" db:"hash"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Author    string    `json:"author" db:"author"`
	Email     string    `json:"email" db:"email"`
	Message   string    `json:"message" db:"message"`
}

// FileChange is the pre/post content of one path touched by a commit.
// A nil side means the file did not exist at that revision.
type FileChange struct {
	Commit string
	Path   string
	Old    *string
	New    *string
}

// Missing reports whether the path existed at neither revision
func (fc FileChange) Missing() bool {
	return fc.Old == nil && fc.New == nil
}

// CandidatePair links a production file change to a test file change.
// Created by the generator; only the refinement engine mutates Tag and RefinedBy.
type CandidatePair struct {
	Tag             Tag     `json:"tag"`
	ProductCommit   string  `json:"product_commit"`
	TestCommit      string  `json:"test_commit"`
	ProductFilePath string  `json:"product_file_path"`
	TestFilePath    string  `json:"test_file_path"`
	ProductOld      *string `json:"product_old_content"`
	ProductNew      *string `json:"product_new_content"`
	TestOld         *string `json:"test_old_content"`
	TestNew         *string `json:"test_new_content"`

	// RefinedBy names the strategy whose verdict last changed Tag.
	RefinedBy string `json:"refined_by,omitempty"`
}

// HasAllContent reports whether all four content blobs are present
func (p *CandidatePair) HasAllContent() bool {
	return p.ProductOld != nil && p.ProductNew != nil && p.TestOld != nil && p.TestNew != nil
}

// Key identifies the (production-commit, production-file, window-commit) triple
func (p *CandidatePair) Key() string {
	return p.ProductCommit + "|" + p.ProductFilePath + "|" + p.TestCommit
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// Deref returns the pointed-to string or "" for nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
