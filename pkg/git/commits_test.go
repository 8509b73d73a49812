package git

import "testing"

func TestFormatCommitMessage(t *testing.T) {
	tests := []struct {
		name    string
		ctype   string
		scope   string
		subject string
		body    string
		want    string
	}{
		{
			name:    "simple",
			ctype:   "feat",
			subject: "add subject",
			want:    "feat: add subject\n\nPowered-by: StudyNotes",
		},
		{
			name:    "with scope",
			ctype:   "docs",
			scope:   "notes",
			subject: "update studynotes-notes",
			want:    "docs(notes): update studynotes-notes\n\nPowered-by: StudyNotes",
		},
		{
			name:    "with body",
			ctype:   "fix",
			subject: "restore note",
			body:    "  Recovered from history.\n",
			want:    "fix: restore note\n\nRecovered from history.\n\nPowered-by: StudyNotes",
		},
		{
			name:    "empty type falls back to chore",
			subject: "configure ignore",
			want:    "chore: configure ignore\n\nPowered-by: StudyNotes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCommitMessage(tt.ctype, tt.scope, tt.subject, tt.body)
			if got != tt.want {
				t.Errorf("FormatCommitMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendFooter(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{
			name: "plain",
			msg:  "rename chapter notes",
			want: "rename chapter notes\n\nPowered-by: StudyNotes",
		},
		{
			name: "already has newline",
			msg:  "line 1\n",
			want: "line 1\n\nPowered-by: StudyNotes",
		},
		{
			name: "already has footer",
			msg:  "done\n\nPowered-by: StudyNotes",
			want: "done\n\nPowered-by: StudyNotes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendFooter(tt.msg)
			if got != tt.want {
				t.Errorf("AppendFooter() = %q, want %q", got, tt.want)
			}
		})
	}
}
