package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"property_portal_backend/internal/leads/directory"
	"property_portal_backend/internal/leads/domain"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// rosterFile is the YAML layout:
//
//	agents:
//	  - name: Jane Doe
//	    email: jane@example.com
//	    active: true
type rosterFile struct {
	Agents []rosterEntry `yaml:"agents"`
}

type rosterEntry struct {
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Active *bool  `yaml:"active"`
}

type agentUpserter interface {
	Upsert(ctx context.Context, in directory.AgentInput) (domain.Agent, error)
}

type importResult struct {
	Upserted int
	Failed   []string
}

// parseRoster reads a roster. Agents default to active; an email listed
// twice is rejected so the file stays the single statement of intent.
func parseRoster(r io.Reader) ([]directory.AgentInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f rosterFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.New("roster: file is empty")
		}
		return nil, eris.Wrap(err, "roster: decode yaml")
	}

	seen := make(map[string]int, len(f.Agents))
	out := make([]directory.AgentInput, 0, len(f.Agents))
	for i, e := range f.Agents {
		key := strings.ToLower(strings.TrimSpace(e.Email))
		if key == "" {
			return nil, eris.Errorf("roster: agent %d has no email", i+1)
		}
		if prev, dup := seen[key]; dup {
			return nil, eris.Errorf("roster: %s listed at entries %d and %d", key, prev+1, i+1)
		}
		seen[key] = i

		active := true
		if e.Active != nil {
			active = *e.Active
		}
		out = append(out, directory.AgentInput{Name: e.Name, Email: e.Email, Active: active})
	}
	return out, nil
}

// applyRoster upserts every entry. A bad entry is reported and skipped.
func applyRoster(ctx context.Context, dir agentUpserter, entries []directory.AgentInput, w io.Writer) (importResult, error) {
	var res importResult
	for _, in := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		agent, err := dir.Upsert(ctx, in)
		if err != nil {
			res.Failed = append(res.Failed, in.Email)
			fmt.Fprintf(w, "FAIL  %-32s %v\n", in.Email, err)
			continue
		}
		res.Upserted++
		fmt.Fprintf(w, "OK    %-32s active=%t open=%d\n", agent.Email, agent.Active, agent.OpenLeadCount)
	}
	return res, nil
}
