// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package algorithms

import (
	"context"
	"strconv"
	"strings"

	"github.com/gamestore/recsys/internal/recommend"
)

// Field weights for keyword matching. A term hitting the item name is
// worth more than the same term buried in the description.
const (
	kwWeightName        = 3.0
	kwWeightGenre       = 2.5
	kwWeightDescription = 2.0
	kwWeightPublisher   = 1.5
	kwWeightPlatform    = 1.5
	kwWeightLanguage    = 1.5
	kwWeightHardware    = 1.5
	kwWeightMode        = 1.0
	kwWeightAgeRating   = 1.0

	// kwMaxPerTerm is the largest weight a single term can accumulate
	// across all fields; scores normalize against it.
	kwMaxPerTerm = kwWeightName + kwWeightGenre + kwWeightDescription +
		kwWeightPublisher + kwWeightPlatform + kwWeightLanguage +
		kwWeightMode + kwWeightAgeRating + 3*kwWeightHardware

	// Bonuses awarded outside the per-term ledger. An exact release-year
	// match earns the full bonus, a year within two of the query the
	// smaller one.
	kwBonusYear        = 1.0
	kwBonusYearNear    = 0.5
	kwBonusMultiplayer = 1.0
)

// Keyword matches expanded query terms against catalog fields. The raw
// score for an item is the field-weighted sum of term hits normalized by
// the maximum achievable for the query, so it lands in [0,1] and the
// engine blends it without further normalization. Unmatched word tokens
// are dropped by the expansion; queries that expand to nothing and carry
// no year or multiplayer intent make the signal go missing rather than
// scoring everything zero.
type Keyword struct {
	BaseSignal

	synonyms *SynonymTable
	model    *kwModel
}

type kwModel struct {
	items map[string]*kwDoc
}

// kwDoc holds an item's searchable fields, pre-folded for matching.
type kwDoc struct {
	name        string
	genres      []string
	description string
	publisher   string
	platforms   []string
	languages   []string
	mode        string
	ageRating   string
	cpu         string
	gpu         string
	ram         string
	releaseYear int
	multiplayer bool
}

// NewKeyword creates a new keyword signal. A nil table uses the
// built-in bilingual synonym dictionary.
func NewKeyword(table *SynonymTable) *Keyword {
	if table == nil {
		table = NewSynonymTable(nil)
	}
	return &Keyword{
		BaseSignal: NewBaseSignal(recommend.SignalKeyword),
		synonyms:   table,
	}
}

// Train indexes the catalog's searchable fields.
func (k *Keyword) Train(ctx context.Context, snap *recommend.Snapshot) error {
	if contextCancelled(ctx) {
		return ctx.Err()
	}

	model := &kwModel{items: make(map[string]*kwDoc, len(snap.Items))}
	for i := range snap.Items {
		item := &snap.Items[i]
		model.items[item.ID] = &kwDoc{
			name:        foldKey(item.Name),
			genres:      foldAll(item.Genres),
			description: foldKey(item.Description),
			publisher:   foldKey(item.Publisher),
			platforms:   foldAll(item.Platforms),
			languages:   foldAll(item.Languages),
			mode:        foldKey(item.Mode),
			ageRating:   foldKey(item.AgeRating),
			cpu:         foldKey(item.MinCPU),
			gpu:         foldKey(item.MinGPU),
			ram:         foldKey(item.MinRAM),
			releaseYear: item.ReleaseYear(),
			multiplayer: item.Multiplayer,
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.model = model
	k.markTrained()
	return nil
}

// Score matches the expanded query against every candidate.
func (k *Keyword) Score(_ context.Context, q recommend.ScoreQuery) (map[string]float64, error) {
	k.mu.RLock()
	model := k.model
	k.mu.RUnlock()

	if model == nil || strings.TrimSpace(q.Query) == "" {
		return nil, nil
	}

	terms := k.synonyms.Expand(q.Query)

	// Intents read the raw tokens as well as the expansions: a bare year
	// is never a table entry, and the Vietnamese multiplayer phrases only
	// surface "multiplayer" after expansion.
	tokens := tokenize(q.Query)
	wantYear, wantMultiplayer := queryIntents(append(append(make([]string, 0, len(tokens)+len(terms)), tokens...), terms...))

	if len(terms) == 0 && wantYear == 0 && !wantMultiplayer {
		return nil, nil
	}

	maxScore := kwMaxPerTerm * float64(len(terms))
	if wantYear != 0 {
		maxScore += kwBonusYear
	}
	if wantMultiplayer {
		maxScore += kwBonusMultiplayer
	}

	scores := make(map[string]float64, len(q.Candidates))
	for _, id := range q.Candidates {
		doc, ok := model.items[id]
		if !ok {
			continue
		}

		var raw float64
		for _, term := range terms {
			raw += scoreTerm(doc, foldKey(term))
		}
		if wantYear != 0 && doc.releaseYear != 0 {
			diff := doc.releaseYear - wantYear
			if diff < 0 {
				diff = -diff
			}
			switch {
			case diff == 0:
				raw += kwBonusYear
			case diff <= 2:
				raw += kwBonusYearNear
			}
		}
		if wantMultiplayer && doc.multiplayer {
			raw += kwBonusMultiplayer
		}

		scores[id] = raw / maxScore
	}

	return scores, nil
}

// scoreTerm accumulates the field weights a single term earns on a doc.
func scoreTerm(doc *kwDoc, term string) float64 {
	var score float64

	if strings.Contains(doc.name, term) {
		score += kwWeightName
	}
	for _, g := range doc.genres {
		if strings.Contains(g, term) {
			score += kwWeightGenre
			break
		}
	}
	if strings.Contains(doc.description, term) {
		score += kwWeightDescription
	}
	if doc.publisher != "" && strings.Contains(doc.publisher, term) {
		score += kwWeightPublisher
	}
	for _, p := range doc.platforms {
		if strings.Contains(p, term) {
			score += kwWeightPlatform
			break
		}
	}
	for _, l := range doc.languages {
		if strings.Contains(l, term) {
			score += kwWeightLanguage
			break
		}
	}
	if doc.mode != "" && strings.Contains(doc.mode, term) {
		score += kwWeightMode
	}
	if doc.ageRating != "" && strings.Contains(doc.ageRating, term) {
		score += kwWeightAgeRating
	}
	if doc.cpu != "" && strings.Contains(doc.cpu, term) {
		score += kwWeightHardware
	}
	if doc.gpu != "" && strings.Contains(doc.gpu, term) {
		score += kwWeightHardware
	}
	if doc.ram != "" && strings.Contains(doc.ram, term) {
		score += kwWeightHardware
	}

	return score
}

// queryIntents extracts a release-year filter and multiplayer intent
// from the expanded terms.
func queryIntents(terms []string) (year int, multiplayer bool) {
	for _, term := range terms {
		t := foldKey(term)
		if len(t) == 4 {
			if y, err := strconv.Atoi(t); err == nil && y >= 1970 && y <= 2100 {
				year = y
				continue
			}
		}
		if t == "multiplayer" || t == "coop" {
			multiplayer = true
		}
	}
	return year, multiplayer
}

func foldAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = foldKey(v)
	}
	return out
}
