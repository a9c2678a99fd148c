package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// AgentResponse is the structured reply a backend is asked to produce.
// It carries exactly one action.
type AgentResponse struct {
	Reasoning []string    `json:"reasoning"`
	Actions   AgentAction `json:"actions"`
	Tools     []AgentTool `json:"tools"`
	Summary   *string     `json:"summary,omitempty"`
	Expected  *string     `json:"expected,omitempty"`
	Next      string      `json:"next"`
}

var agentResponseRequired = []string{"reasoning", "actions", "tools", "next"}

// ParseAgentResponse decodes and validates a backend reply.
func ParseAgentResponse(text string) (AgentResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return AgentResponse{}, fmt.Errorf("decoding agent response: %w", err)
	}
	for _, key := range agentResponseRequired {
		if _, ok := fields[key]; !ok {
			return AgentResponse{}, fmt.Errorf("agent response is missing %q", key)
		}
	}

	var r AgentResponse
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return AgentResponse{}, fmt.Errorf("decoding agent response: %w", err)
	}
	if err := r.Validate(); err != nil {
		return AgentResponse{}, err
	}
	return r, nil
}

func (r AgentResponse) Validate() error {
	if err := r.Actions.Validate(); err != nil {
		return fmt.Errorf("actions: %w", err)
	}
	for i, t := range r.Tools {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tools[%d]: %w", i, err)
		}
	}
	return nil
}

// ActionType tags the AgentAction union.
type ActionType string

const (
	ActionFs                   ActionType = "fs"
	ActionSearchWeb            ActionType = "search_web"
	ActionUserAssistanceNeeded ActionType = "user_assistance_needed"
)

var actionTypes = []ActionType{ActionFs, ActionSearchWeb, ActionUserAssistanceNeeded}

// AgentAction is a tagged union: Type selects which payload field is set.
type AgentAction struct {
	Type                 ActionType            `json:"action_type"`
	Fs                   *FsAction             `json:"fs,omitempty"`
	SearchWeb            *SearchWeb            `json:"search_web,omitempty"`
	UserAssistanceNeeded *UserAssistanceNeeded `json:"user_assistance_needed,omitempty"`
}

type SearchWeb struct {
	Query string `json:"query"`
}

type UserAssistanceNeeded struct {
	Message string `json:"message"`
}

func (a AgentAction) Validate() error {
	set := map[ActionType]bool{
		ActionFs:                   a.Fs != nil,
		ActionSearchWeb:            a.SearchWeb != nil,
		ActionUserAssistanceNeeded: a.UserAssistanceNeeded != nil,
	}
	if err := checkUnion("action_type", string(a.Type), set); err != nil {
		return err
	}
	if a.Fs != nil {
		return a.Fs.Validate()
	}
	return nil
}

// Signature is the short human-readable form used in ActionResults.
func (a AgentAction) Signature() string {
	switch a.Type {
	case ActionFs:
		if a.Fs != nil {
			return a.Fs.Signature()
		}
	case ActionSearchWeb:
		if a.SearchWeb != nil {
			return "search_web: " + a.SearchWeb.Query
		}
	case ActionUserAssistanceNeeded:
		if a.UserAssistanceNeeded != nil {
			return "user_assistance_needed: " + a.UserAssistanceNeeded.Message
		}
	}
	return string(a.Type)
}

// FsActionType tags the FsAction union.
type FsActionType string

const (
	FsReadFile         FsActionType = "read_file"
	FsWriteFile        FsActionType = "write_file"
	FsDirLs            FsActionType = "dir_ls"
	FsCD               FsActionType = "cd"
	FsPwd              FsActionType = "pwd"
	FsDiffFiles        FsActionType = "diff_files"
	FsApplyPatchToFile FsActionType = "apply_patch_to_file"
)

var fsActionTypes = []FsActionType{
	FsReadFile, FsWriteFile, FsDirLs, FsCD, FsPwd, FsDiffFiles, FsApplyPatchToFile,
}

type FsAction struct {
	Type             FsActionType      `json:"fs_action"`
	ReadFile         *ReadFile         `json:"read_file,omitempty"`
	WriteFile        *WriteFile        `json:"write_file,omitempty"`
	DirLs            *DirLs            `json:"dir_ls,omitempty"`
	CD               *CD               `json:"cd,omitempty"`
	Pwd              *Pwd              `json:"pwd,omitempty"`
	DiffFiles        *DiffFiles        `json:"diff_files,omitempty"`
	ApplyPatchToFile *ApplyPatchToFile `json:"apply_patch_to_file,omitempty"`
}

type ReadFile struct {
	FilePath string `json:"file_path"`
}

type WriteFile struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

type DirLs struct {
	DirPath string `json:"dir_path"`
}

type CD struct {
	DirPath string `json:"dir_path"`
}

type Pwd struct{}

type DiffFiles struct {
	File0Path string `json:"file_0_path"`
	File1Path string `json:"file_1_path"`
}

type ApplyPatchToFile struct {
	FilePath  string `json:"file_path"`
	Patch     string `json:"patch"`
	StartLine int    `json:"start_line"`
}

func (a FsAction) Validate() error {
	return checkUnion("fs_action", string(a.Type), map[FsActionType]bool{
		FsReadFile:         a.ReadFile != nil,
		FsWriteFile:        a.WriteFile != nil,
		FsDirLs:            a.DirLs != nil,
		FsCD:               a.CD != nil,
		FsPwd:              a.Pwd != nil || a.Type == FsPwd,
		FsDiffFiles:        a.DiffFiles != nil,
		FsApplyPatchToFile: a.ApplyPatchToFile != nil,
	})
}

func (a FsAction) Signature() string {
	switch {
	case a.Type == FsReadFile && a.ReadFile != nil:
		return a.ReadFile.Signature()
	case a.Type == FsWriteFile && a.WriteFile != nil:
		return a.WriteFile.Signature()
	case a.Type == FsDirLs && a.DirLs != nil:
		return a.DirLs.Signature()
	case a.Type == FsCD && a.CD != nil:
		return a.CD.Signature()
	case a.Type == FsPwd:
		return Pwd{}.Signature()
	case a.Type == FsDiffFiles && a.DiffFiles != nil:
		return fmt.Sprintf("diff_files: %s %s", a.DiffFiles.File0Path, a.DiffFiles.File1Path)
	case a.Type == FsApplyPatchToFile && a.ApplyPatchToFile != nil:
		return "apply_patch_to_file: " + a.ApplyPatchToFile.FilePath
	}
	return string(a.Type)
}

// ToolType tags the AgentTool union.
type ToolType string

const ToolMemory ToolType = "memory"

var toolTypes = []ToolType{ToolMemory}

type AgentTool struct {
	Type   ToolType      `json:"tool_type"`
	Memory *MemoryAction `json:"memory,omitempty"`
}

func (t AgentTool) Validate() error {
	if err := checkUnion("tool_type", string(t.Type), map[ToolType]bool{
		ToolMemory: t.Memory != nil,
	}); err != nil {
		return err
	}
	return t.Memory.Validate()
}

// MemoryOp tags the MemoryAction union. The original wire format told the
// parameter shapes apart structurally; here the operation is explicit.
type MemoryOp string

const (
	MemoryOpList   MemoryOp = "list"
	MemoryOpFind   MemoryOp = "find"
	MemoryOpForget MemoryOp = "forget"
	MemoryOpStore  MemoryOp = "store"
)

var memoryOps = []MemoryOp{MemoryOpList, MemoryOpFind, MemoryOpForget, MemoryOpStore}

type MemoryAction struct {
	Operation MemoryOp      `json:"operation"`
	List      *ListParams   `json:"list,omitempty"`
	Find      *FindParams   `json:"find,omitempty"`
	Forget    *ForgetParams `json:"forget,omitempty"`
	Store     *StoreParams  `json:"store,omitempty"`
}

type ListParams struct{}

type FindParams struct {
	Query string `json:"query"`
}

type ForgetParams struct {
	ID string `json:"id"`
}

type StoreParams struct {
	Content string `json:"content"`
	ID      string `json:"id"`
}

func (m MemoryAction) Validate() error {
	return checkUnion("operation", string(m.Operation), map[MemoryOp]bool{
		MemoryOpList:   m.List != nil || m.Operation == MemoryOpList,
		MemoryOpFind:   m.Find != nil,
		MemoryOpForget: m.Forget != nil,
		MemoryOpStore:  m.Store != nil,
	})
}

func (m MemoryAction) Signature() string {
	switch {
	case m.Operation == MemoryOpFind && m.Find != nil:
		return "memory find: " + m.Find.Query
	case m.Operation == MemoryOpForget && m.Forget != nil:
		return "memory forget: " + m.Forget.ID
	case m.Operation == MemoryOpStore && m.Store != nil:
		return "memory store: " + m.Store.ID
	}
	return "memory " + string(m.Operation)
}

// checkUnion verifies that tag is a known variant and that only its payload is set.
// Variants without fields report themselves as set when tagged.
func checkUnion[K ~string](field, tag string, set map[K]bool) error {
	if tag == "" {
		return fmt.Errorf("missing %s", field)
	}
	known, ok := set[K(tag)]
	if !ok {
		return fmt.Errorf("unknown %s %q", field, tag)
	}
	if !known {
		return fmt.Errorf("%s %q has no %q payload", field, tag, tag)
	}
	var extra []string
	for k, v := range set {
		if v && string(k) != tag {
			extra = append(extra, string(k))
		}
	}
	if len(extra) > 0 {
		slices.Sort(extra)
		return fmt.Errorf("%s %q carries payloads of other variants: %s", field, tag, strings.Join(extra, ", "))
	}
	return nil
}
