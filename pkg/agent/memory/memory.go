// Package memory is the agent-facing facade over the fact store and the
// semantic search client. Both operations take plain arguments and always
// answer with text the model can read; errors never escape as Go errors.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/EternisAI/enchanted-assistant/pkg/factstore"
	"github.com/EternisAI/enchanted-assistant/pkg/search"
)

const (
	// RecentMemoryLimit caps the "Recent memories" section.
	RecentMemoryLimit = 10

	NoInformationFound = "No information found."

	timestampLayout = "2006-01-02 15:04:05"
)

// Variant selects how an item is stored and recalled.
type Variant int

const (
	VariantMemoryLog Variant = iota
	VariantPersonalFact
	// VariantSearch only queries the knowledge base on retrieve; stores
	// still append to the log under the given tag.
	VariantSearch
)

func (v Variant) String() string {
	switch v {
	case VariantPersonalFact:
		return factstore.FactType
	case VariantSearch:
		return "search"
	default:
		return "memory_log"
	}
}

// Kind is the parsed form of the tool's "type" argument. EntryType is the
// log tag for VariantMemoryLog and VariantSearch, empty for facts.
type Kind struct {
	Variant   Variant
	EntryType string
}

// ParseKind maps the "type" argument onto a Kind. "personal_fact" selects
// facts, "memory" (or "") the memory log, and any other tag a free search.
func ParseKind(raw string) Kind {
	raw = strings.TrimSpace(raw)
	switch raw {
	case factstore.FactType:
		return Kind{Variant: VariantPersonalFact}
	case "", factstore.DefaultEntryType:
		return Kind{Variant: VariantMemoryLog, EntryType: factstore.DefaultEntryType}
	default:
		return Kind{Variant: VariantSearch, EntryType: raw}
	}
}

func (k Kind) normalized() Kind {
	if k.Variant == VariantMemoryLog && k.EntryType == "" {
		k.EntryType = factstore.DefaultEntryType
	}
	return k
}

func (k Kind) String() string {
	if k.Variant == VariantPersonalFact {
		return factstore.FactType
	}
	return k.EntryType
}

// Store is the part of factstore.Store the service depends on.
type Store interface {
	PutFact(ctx context.Context, identityKey, category, content string) error
	AppendMemory(ctx context.Context, entryType, content, identityKey string) (factstore.MemoryEntry, error)
	GetFact(ctx context.Context, identityKey, category string) (string, error)
	ListFacts(ctx context.Context, identityKey string) ([]factstore.Fact, error)
	ListMemory(ctx context.Context, identityKey, entryType string, limit int) ([]factstore.MemoryEntry, error)
}

type RetrieveRequest struct {
	Query       string
	Kind        Kind
	Category    string
	IdentityKey string
}

type StoreRequest struct {
	Content     string
	Kind        Kind
	Category    string
	IdentityKey string
}

type Option func(*Service)

// WithLocation sets the zone used to render memory timestamps (UTC by default).
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

type Service struct {
	store    Store
	searcher search.Searcher
	logger   *log.Logger
	location *time.Location
}

func NewService(store Store, searcher search.Searcher, logger *log.Logger, opts ...Option) *Service {
	if searcher == nil {
		searcher = search.Nop{}
	}
	s := &Service{
		store:    store,
		searcher: searcher,
		logger:   logger,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve merges knowledge base snippets with stored facts or recent memory
// entries into one text block. A free search needs no identity key.
func (s *Service) Retrieve(ctx context.Context, req RetrieveRequest) string {
	req.Kind = req.Kind.normalized()
	if req.IdentityKey == "" {
		switch req.Kind.Variant {
		case VariantPersonalFact:
			return "Error: 'key' is required when retrieving personal facts."
		case VariantMemoryLog:
			return "Error: 'key' is required when retrieving memory logs."
		}
	}

	var sections []string

	if req.Query != "" {
		snippets, err := s.searcher.Search(ctx, req.Query)
		if err != nil {
			// The knowledge base is best effort; stored data still renders.
			s.logger.Warn("Knowledge base search failed", "error", err)
		}
		for _, snippet := range snippets {
			sections = append(sections, "From KB: "+snippet.Text)
		}
	}

	switch req.Kind.Variant {
	case VariantPersonalFact:
		section, err := s.retrieveFacts(ctx, req)
		if err != nil {
			s.logger.Error("Failed to retrieve facts", "identity_key", req.IdentityKey, "error", err)
			return fmt.Sprintf("Error retrieving information: %v", err)
		}
		if section != "" {
			sections = append(sections, section)
		}

	case VariantMemoryLog:
		entries, err := s.store.ListMemory(ctx, req.IdentityKey, req.Kind.EntryType, RecentMemoryLimit)
		if err != nil {
			s.logger.Error("Failed to list memory", "identity_key", req.IdentityKey, "error", err)
			return fmt.Sprintf("Error retrieving information: %v", err)
		}
		if len(entries) > 0 {
			lines := lo.Map(entries, func(e factstore.MemoryEntry, _ int) string {
				return fmt.Sprintf("[%s] %s", e.CreatedAt.In(s.location).Format(timestampLayout), e.Content)
			})
			sections = append(sections, "Recent memories:\n"+strings.Join(lines, "\n"))
		}
	}

	if len(sections) == 0 {
		return NoInformationFound
	}
	return strings.Join(sections, "\n\n")
}

func (s *Service) retrieveFacts(ctx context.Context, req RetrieveRequest) (string, error) {
	if req.Category != "" {
		content, err := s.store.GetFact(ctx, req.IdentityKey, req.Category)
		if errors.Is(err, factstore.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return "From memory: " + content, nil
	}

	facts, err := s.store.ListFacts(ctx, req.IdentityKey)
	if err != nil {
		return "", err
	}
	if len(facts) == 0 {
		return "", nil
	}
	lines := lo.Map(facts, func(f factstore.Fact, _ int) string {
		return f.Category + ": " + f.Content
	})
	return "Personal facts:\n" + strings.Join(lines, "\n"), nil
}

// Store persists content as a fact (overwriting) or a memory log entry (appending).
func (s *Service) Store(ctx context.Context, req StoreRequest) string {
	req.Kind = req.Kind.normalized()
	if req.Content == "" {
		return "Error: 'content' is required."
	}

	switch req.Kind.Variant {
	case VariantPersonalFact:
		if req.Category == "" || req.IdentityKey == "" {
			return "Error: 'category' and 'key' are required to store personal facts."
		}
		if err := s.store.PutFact(ctx, req.IdentityKey, req.Category, req.Content); err != nil {
			s.logger.Error("Failed to store fact", "identity_key", req.IdentityKey, "category", req.Category, "error", err)
			return fmt.Sprintf("Error storing content: %v", err)
		}
		s.logger.Info("Stored personal fact", "identity_key", req.IdentityKey, "category", req.Category)
		return fmt.Sprintf("Successfully stored personal_fact: %s = %s", req.Category, req.Content)

	default:
		if req.IdentityKey == "" {
			return "Error: 'key' is required when storing memory logs."
		}
		entry, err := s.store.AppendMemory(ctx, req.Kind.EntryType, req.Content, req.IdentityKey)
		if err != nil {
			s.logger.Error("Failed to append memory", "identity_key", req.IdentityKey, "error", err)
			return fmt.Sprintf("Error storing content: %v", err)
		}
		s.logger.Info("Stored memory", "id", entry.ID, "identity_key", req.IdentityKey)
		return "Successfully stored " + req.Kind.String()
	}
}
