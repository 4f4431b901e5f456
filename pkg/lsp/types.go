package lsp

import (
	"github.com/rs/zerolog"
)

// LSP types based on the specification
// https://microsoft.github.io/language-server-protocol/specifications/specification-current/

// MessageType represents the type of a window/logMessage notification
type MessageType int

const (
	Error   MessageType = 1
	Warning MessageType = 2
	Info    MessageType = 3
	Debug   MessageType = 4
)

// ParseMessageTypeFromZerolog maps a zerolog level string onto the LSP
// message type scale.
func ParseMessageTypeFromZerolog(level string) MessageType {
	zlgLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return Debug
	}
	switch zlgLevel {
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return Error
	case zerolog.WarnLevel:
		return Warning
	case zerolog.InfoLevel:
		return Info
	default:
		return Debug
	}
}

// LogMessageParams represents the parameters for a window/logMessage notification
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type InitializeParams struct {
	ProcessID             int         `json:"processId,omitempty"`
	RootURI               string      `json:"rootUri"`
	InitializationOptions interface{} `json:"initializationOptions,omitempty"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

type ServerCapabilities struct {
	TextDocumentSync       TextDocumentSyncOptions `json:"textDocumentSync"`
	CodeLensProvider       *CodeLensOptions        `json:"codeLensProvider,omitempty"`
	DocumentSymbolProvider bool                    `json:"documentSymbolProvider"`
}

type TextDocumentSyncOptions struct {
	OpenClose bool `json:"openClose"`
	Change    int  `json:"change"`
	Save      bool `json:"save"`
}

// TextDocumentSyncFull requests whole-document content on every change.
const TextDocumentSyncFull = 1

type CodeLensOptions struct {
	ResolveProvider bool `json:"resolveProvider"`
}

type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         string                 `json:"text,omitempty"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Command struct {
	Title     string        `json:"title"`
	Command   string        `json:"command"`
	Arguments []interface{} `json:"arguments,omitempty"`
}

type CodeLens struct {
	Range   Range    `json:"range"`
	Command *Command `json:"command,omitempty"`
}

type CodeLensParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// SymbolKind represents the kind of a document symbol.
type SymbolKind int

const (
	SymbolKindModule SymbolKind = 2
	SymbolKindField  SymbolKind = 8
)

type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DisplayMode selects which occurrences a decorations request annotates.
// Viewport and cursor are mutually exclusive presentation policies; a request
// carries exactly one mode.
type DisplayMode string

const (
	DisplayModeAll      DisplayMode = "all"
	DisplayModeViewport DisplayMode = "viewport"
	DisplayModeCursor   DisplayMode = "cursor"
)

// DecorationsParams is the request body of the custom tagdex/decorations
// method, the decoration layer's query surface.
type DecorationsParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Mode         DisplayMode            `json:"mode"`

	// Ranges are the visible line spans, viewport mode only.
	Ranges []Range `json:"ranges,omitempty"`

	// Line is the cursor line, cursor mode only.
	Line int `json:"line"`
}

// Decoration is one renderable annotation: where to draw it and what ordinal
// to show.
type Decoration struct {
	Range        Range  `json:"range"`
	Tag          string `json:"tag"`
	OrderInGroup int    `json:"orderInGroup"`
	GroupSize    int    `json:"groupSize"`
	Label        string `json:"label"`
}
