package platform

import (
	"fmt"
	"strings"

	"github.com/aretw0/markwrite/pkg/core"
)

// Commit types for snapshot history.
const (
	CommitTypeFeat  = "feat"
	CommitTypeFix   = "fix"
	CommitTypeChore = "chore"
)

// Footer marks commits written by markwrite.
const Footer = "Saved-by: markwrite"

// FormatChangeReason builds a Conventional Commit message:
//
//	<type>(<scope>): <subject>
//
//	<body>
//
//	Saved-by: markwrite
func FormatChangeReason(ctype, scope, subject, body string) string {
	var sb strings.Builder

	if ctype == "" {
		ctype = CommitTypeChore
	}
	sb.WriteString(ctype)
	if scope != "" {
		sb.WriteString("(" + scope + ")")
	}
	sb.WriteString(": ")
	sb.WriteString(subject)

	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	sb.WriteString("\n\n")
	sb.WriteString(Footer)
	return sb.String()
}

// AppendFooter appends the footer to a free-form message once.
func AppendFooter(msg string) string {
	if strings.Contains(msg, Footer) {
		return msg
	}
	msg = strings.TrimRight(msg, "\n")
	return msg + "\n\n" + Footer
}

// ReasonFor describes an action as a commit message.
func ReasonFor(a core.Action) string {
	switch act := a.(type) {
	case core.CreateNote:
		return FormatChangeReason(CommitTypeFeat, "notes", fmt.Sprintf("create %q", act.Title), "")
	case core.UpdateNote:
		var fields []string
		if act.Title != nil {
			fields = append(fields, "title")
		}
		if act.Content != nil {
			fields = append(fields, "content")
		}
		return FormatChangeReason(CommitTypeFeat, "notes", fmt.Sprintf("update %s", act.ID), strings.Join(fields, ", "))
	case core.DeleteNote:
		return FormatChangeReason(CommitTypeFeat, "notes", fmt.Sprintf("delete %s", act.ID), "")
	case core.SetNotes:
		return FormatChangeReason(CommitTypeFeat, "notes", fmt.Sprintf("replace collection (%d notes)", len(act.Notes)), "")
	case core.SetActiveNote:
		return FormatChangeReason(CommitTypeChore, "session", fmt.Sprintf("select %s", act.ID), "")
	case nil:
		return ""
	default:
		return FormatChangeReason(CommitTypeChore, "settings", strings.ToLower(string(a.Type())), "")
	}
}
