package main

import (
	"strings"
	"testing"
)

func TestParseAgentResponse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
		sig     string
	}{
		{
			name: "pwd without payload",
			text: `{"reasoning": [], "actions": {"action_type": "fs", "fs": {"fs_action": "pwd"}}, "tools": [], "next": "n"}`,
			sig:  "pwd",
		},
		{
			name: "search",
			text: `{"reasoning": ["a"], "actions": {"action_type": "search_web", "search_web": {"query": "golang"}}, "tools": [], "next": "n"}`,
			sig:  "search_web: golang",
		},
		{
			name: "user assistance",
			text: `{"reasoning": [], "actions": {"action_type": "user_assistance_needed", "user_assistance_needed": {"message": "first number?"}}, "tools": [], "next": "n"}`,
			sig:  "user_assistance_needed: first number?",
		},
		{
			name: "diff",
			text: `{"reasoning": [], "actions": {"action_type": "fs", "fs": {"fs_action": "diff_files", "diff_files": {"file_0_path": "a", "file_1_path": "b"}}}, "tools": [], "next": "n"}`,
			sig:  "diff_files: a b",
		},
		{
			name:    "not json",
			text:    `I will now write the file`,
			wantErr: "decoding agent response",
		},
		{
			name:    "missing next",
			text:    `{"reasoning": [], "actions": {"action_type": "fs", "fs": {"fs_action": "pwd"}}, "tools": []}`,
			wantErr: `missing "next"`,
		},
		{
			name:    "missing tag",
			text:    `{"reasoning": [], "actions": {"search_web": {"query": "x"}}, "tools": [], "next": "n"}`,
			wantErr: "missing action_type",
		},
		{
			name:    "unknown tag",
			text:    `{"reasoning": [], "actions": {"action_type": "rm_rf"}, "tools": [], "next": "n"}`,
			wantErr: `unknown action_type "rm_rf"`,
		},
		{
			name:    "tag without payload",
			text:    `{"reasoning": [], "actions": {"action_type": "search_web"}, "tools": [], "next": "n"}`,
			wantErr: `has no "search_web" payload`,
		},
		{
			name:    "payload of another variant",
			text:    `{"reasoning": [], "actions": {"action_type": "fs", "fs": {"fs_action": "read_file", "read_file": {"file_path": "a"}, "cd": {"dir_path": "b"}}}, "tools": [], "next": "n"}`,
			wantErr: "carries payloads of other variants: cd",
		},
		{
			name:    "bad memory tool",
			text:    `{"reasoning": [], "actions": {"action_type": "fs", "fs": {"fs_action": "pwd"}}, "tools": [{"tool_type": "memory", "memory": {"operation": "find"}}], "next": "n"}`,
			wantErr: "tools[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseAgentResponse(tt.text)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAgentResponse() error = %v", err)
			}
			if got := r.Actions.Signature(); got != tt.sig {
				t.Errorf("Signature() = %q, want %q", got, tt.sig)
			}
		})
	}
}

func TestMemorySignature(t *testing.T) {
	tests := []struct {
		m    MemoryAction
		want string
	}{
		{MemoryAction{Operation: MemoryOpList}, "memory list"},
		{MemoryAction{Operation: MemoryOpFind, Find: &FindParams{Query: "q"}}, "memory find: q"},
		{MemoryAction{Operation: MemoryOpForget, Forget: &ForgetParams{ID: "k"}}, "memory forget: k"},
		{MemoryAction{Operation: MemoryOpStore, Store: &StoreParams{ID: "k", Content: "v"}}, "memory store: k"},
	}
	for _, tt := range tests {
		if got := tt.m.Signature(); got != tt.want {
			t.Errorf("Signature() = %q, want %q", got, tt.want)
		}
		if err := tt.m.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v", tt.want, err)
		}
	}
}
