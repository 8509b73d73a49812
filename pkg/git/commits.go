package git

import (
	"strings"
)

// Footer is appended to every commit written by the store.
const Footer = "Powered-by: StudyNotes"

// CommitType constants for semantic commits
const (
	CommitTypeFeat  = "feat"
	CommitTypeFix   = "fix"
	CommitTypeDocs  = "docs"
	CommitTypeChore = "chore"
)

// FormatCommitMessage builds a Conventional Commit message:
//
//	<type>(<scope>): <subject>
//
//	<body>
//
//	Powered-by: StudyNotes
func FormatCommitMessage(ctype, scope, subject, body string) string {
	var sb strings.Builder

	if ctype == "" {
		ctype = CommitTypeChore
	}
	sb.WriteString(ctype)

	if scope != "" {
		sb.WriteString("(")
		sb.WriteString(scope)
		sb.WriteString(")")
	}

	sb.WriteString(": ")
	sb.WriteString(subject)

	if body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(body))
	}

	sb.WriteString("\n\n")
	sb.WriteString(Footer)

	return sb.String()
}

// AppendFooter appends the footer to a free-form message if not present.
func AppendFooter(msg string) string {
	if strings.Contains(msg, Footer) {
		return msg
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if !strings.HasSuffix(msg, "\n\n") {
		msg += "\n"
	}
	return msg + Footer
}
