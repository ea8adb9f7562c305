// Package translate batches subtitle segments into fixed-size chunks and
// runs them through an external chat-style translation service using a
// numbered-line protocol.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"dubflow/internal/subtitle"
	"dubflow/pkg/log"
	"dubflow/pkg/retry"
)

// ErrServiceExhausted means a chunk kept failing after the full retry
// budget; the whole operation is aborted. Segments translated by prior
// chunks keep their translations.
var ErrServiceExhausted = errors.New("translation service exhausted")

const (
	chunkSize    = 10
	maxAttempts  = 3
	chunkPacing  = time.Second
	retryBackoff = time.Second
)

// Result reports the structural outcome of a translation run. A missing
// id means the upstream response never covered that segment; callers
// decide whether partial coverage is acceptable.
type Result struct {
	Requested  int
	Translated int
	MissingIDs []int
}

// Complete reports whether every requested segment was translated.
func (r Result) Complete() bool {
	return r.Requested == r.Translated
}

// Translator drives the chunked numbered-line translation protocol.
type Translator struct {
	client ChatClient
	policy *retry.Policy

	// pace is overridable for tests; it sleeps between chunk calls.
	pace func(ctx context.Context, d time.Duration) error
}

func New(client ChatClient) *Translator {
	policy := retry.New(maxAttempts, retry.Exponential(retryBackoff))
	policy.Retryable = isTransient

	return &Translator{
		client: client,
		policy: policy,
		pace:   paceSleep,
	}
}

// Translate populates TranslatedText on the given segments in place,
// chunk by chunk. Unmatched response lines are ignored and unmatched
// segments stay untranslated; the Result makes that visible.
func (t *Translator) Translate(ctx context.Context, segments []subtitle.Segment, sourceLang, targetLang string) (Result, error) {
	result := Result{Requested: len(segments)}
	if len(segments) == 0 {
		return result, nil
	}

	systemPrompt := buildSystemPrompt(sourceLang, targetLang)

	chunkCount := (len(segments) + chunkSize - 1) / chunkSize
	for i := 0; i < len(segments); i += chunkSize {
		end := min(i+chunkSize, len(segments))
		chunk := segments[i:end]

		userMessage := buildUserMessage(chunk, sourceLang, targetLang)

		var content string
		err := t.policy.Do(ctx, func() error {
			var callErr error
			content, callErr = t.client.Complete(ctx, systemPrompt, userMessage)
			return callErr
		})
		if err != nil {
			result.MissingIDs = collectMissing(segments, result.MissingIDs)
			return result, fmt.Errorf("%w: chunk %d/%d: %v",
				ErrServiceExhausted, i/chunkSize+1, chunkCount, err)
		}

		applyResponse(chunk, content)

		if end < len(segments) {
			if err := t.pace(ctx, chunkPacing); err != nil {
				result.MissingIDs = collectMissing(segments, result.MissingIDs)
				return result, err
			}
		}
	}

	for _, seg := range segments {
		if seg.TranslatedText != "" {
			result.Translated++
		} else {
			result.MissingIDs = append(result.MissingIDs, seg.ID)
		}
	}

	if !result.Complete() {
		log.Warn("translation left %d of %d segments untranslated (ids: %v)",
			len(result.MissingIDs), result.Requested, result.MissingIDs)
	}

	return result, nil
}

// applyResponse parses the numbered-line response onto the chunk.
// Lines that do not fit the "<id>. <text>" shape are logged and ignored.
func applyResponse(chunk []subtitle.Segment, content string) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ". ", 2)
		if len(parts) != 2 {
			log.Warn("ignoring malformed translation line: %s", line)
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			log.Warn("ignoring translation line with non-numeric id: %s", line)
			continue
		}

		for j := range chunk {
			if chunk[j].ID == id {
				chunk[j].TranslatedText = parts[1]
				break
			}
		}
	}
}

func buildSystemPrompt(sourceLang, targetLang string) string {
	source := languageName(sourceLang)
	target := languageName(targetLang)

	var prompt strings.Builder
	prompt.WriteString("You are a professional translator. ")
	prompt.WriteString(fmt.Sprintf("Translate subtitle text from %s to %s. ", source, target))
	prompt.WriteString("Keep the line number of every line. ")
	prompt.WriteString(fmt.Sprintf("Translate into natural %s while conveying the original meaning precisely. ", target))
	prompt.WriteString("Provide only the translations, no commentary. ")
	prompt.WriteString("Use a formal, professional register.")
	return prompt.String()
}

func buildUserMessage(chunk []subtitle.Segment, sourceLang, targetLang string) string {
	lines := make([]string, 0, len(chunk))
	for _, seg := range chunk {
		// inline newlines would break the numbered-line protocol
		text := strings.ReplaceAll(seg.Text, "\n", " ")
		lines = append(lines, fmt.Sprintf("%d. %s", seg.ID, text))
	}

	return fmt.Sprintf(
		"Translate the following %s subtitle text to %s. "+
			"Each line has the form '<number>. <text>'; reply in the same form.\n\n%s",
		languageName(sourceLang), languageName(targetLang), strings.Join(lines, "\n"))
}

// languageName renders a code like "ko" as an English language name for
// the prompt, falling back to the raw code.
func languageName(code string) string {
	tag := language.Make(code)
	if tag == language.Und {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

func collectMissing(segments []subtitle.Segment, missing []int) []int {
	for _, seg := range segments {
		if seg.TranslatedText == "" {
			missing = append(missing, seg.ID)
		}
	}
	return missing
}

func paceSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
