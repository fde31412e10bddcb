// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"postforge/internal/slug"
)

// NarrativeCount is the number of options every generation must return.
const NarrativeCount = 4

// GenerateNarratives proposes four narratives for the input, one per
// angle.
func (p *Pipeline) GenerateNarratives(ctx context.Context, in NarrativeInput) Result[NarrativeSet] {
	var set *NarrativeSet
	err := p.run(ctx, StageNarratives, func() error {
		if strings.TrimSpace(in.Theme) == "" {
			return &InputError{Field: "theme", Reason: "must not be empty"}
		}
		if in.ContentType != "" && !in.ContentType.Valid() {
			return &InputError{Field: "contentType", Reason: "unknown content type " + string(in.ContentType)}
		}
		if err := p.moderate(ctx, strings.TrimSpace(in.Theme+"\n"+in.Objective)); err != nil {
			return err
		}

		system, user, err := narrativePrompts(in, p.variables(ctx, in.UserID))
		if err != nil {
			return err
		}
		reply, err := p.generateText(ctx, StageNarratives, system, user)
		if err != nil {
			return err
		}
		set, err = parseNarratives(reply)
		return err
	})
	if err != nil {
		return fail[NarrativeSet](err)
	}
	return ok(*set)
}

// rawNarrative mirrors NarrativeOption with a lenient id.
type rawNarrative struct {
	ID                  flexID   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Angle               string   `json:"angle"`
	Hook                string   `json:"hook"`
	CoreBelief          string   `json:"core_belief"`
	StatusQuoChallenged string   `json:"status_quo_challenged"`
	Keywords            []string `json:"keywords"`
	Tone                string   `json:"tone"`
}

// parseNarratives extracts, validates and normalizes a narrative reply.
func parseNarratives(reply string) (*NarrativeSet, error) {
	doc, found := extractJSONObject(reply)
	if !found {
		return nil, invalid(StageNarratives, "no JSON object in model reply")
	}
	if err := validateSchema(StageNarratives, narrativesSchema, doc); err != nil {
		return nil, err
	}

	var raw struct {
		Narratives []rawNarrative `json:"narratives"`
	}
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return nil, invalid(StageNarratives, "decode: %v", err)
	}

	set := &NarrativeSet{Narratives: make([]NarrativeOption, 0, len(raw.Narratives))}
	seen := make(map[Angle]bool, NarrativeCount)
	for i, r := range raw.Narratives {
		angle := normalizeAngle(r.Angle)
		if !knownAngle(angle) {
			return nil, invalid(StageNarratives, "narrative %d has unknown angle %q", i+1, r.Angle)
		}
		if seen[angle] {
			return nil, invalid(StageNarratives, "angle %q appears more than once", angle)
		}
		seen[angle] = true

		id := strings.TrimSpace(string(r.ID))
		if id == "" {
			return nil, invalid(StageNarratives, "narrative %d has an empty id", i+1)
		}
		set.Narratives = append(set.Narratives, NarrativeOption{
			ID:                  id,
			Title:               strings.TrimSpace(r.Title),
			Description:         strings.TrimSpace(r.Description),
			Angle:               angle,
			Hook:                r.Hook,
			CoreBelief:          r.CoreBelief,
			StatusQuoChallenged: r.StatusQuoChallenged,
			Keywords:            r.Keywords,
			Tone:                r.Tone,
		})
	}

	for _, a := range Angles {
		if !seen[a] {
			return nil, invalid(StageNarratives, "missing narrative angle %q", a)
		}
	}
	return set, nil
}

// normalizeAngle lowercases and strips accents, so "Visionário" matches.
func normalizeAngle(s string) Angle {
	return Angle(slug.Fold(s))
}

func knownAngle(a Angle) bool {
	for _, known := range Angles {
		if a == known {
			return true
		}
	}
	return false
}
