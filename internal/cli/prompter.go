package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/engine"
	"github.com/Veraticus/smsledger/internal/model"
)

// Reviewer is the part of the orchestrator the review loop drives.
type Reviewer interface {
	Candidates() []model.Candidate
	Open(id string) error
	UpdateTag(text string) error
	Cancel() error
	Confirm(ctx context.Context) (*engine.Outcome, error)
}

// ReviewStats summarizes one review run.
type ReviewStats struct {
	Reconciled int
	Failed     int
	Cancelled  int
	PruneFails int
}

// ReviewPrompter walks the user through candidates one at a time in line mode.
type ReviewPrompter struct {
	reader *NonBlockingReader
	writer io.Writer
	stats  ReviewStats
}

// NewReviewPrompter creates a prompter on r and w, defaulting to stdio.
func NewReviewPrompter(r io.Reader, w io.Writer) *ReviewPrompter {
	if r == nil {
		r = os.Stdin
	}
	return NewReviewPrompterFromReader(NewNonBlockingReader(r), w)
}

// NewReviewPrompterFromReader creates a prompter that continues reading
// from an existing line reader.
func NewReviewPrompterFromReader(r *NonBlockingReader, w io.Writer) *ReviewPrompter {
	if w == nil {
		w = os.Stdout
	}
	return &ReviewPrompter{
		reader: r,
		writer: w,
	}
}

// Stats returns the counters for the run so far.
func (p *ReviewPrompter) Stats() ReviewStats {
	return p.stats
}

// Run loops until the candidate list is empty, the user quits or input ends.
func (p *ReviewPrompter) Run(ctx context.Context, reviewer Reviewer) error {
	for {
		candidates := reviewer.Candidates()
		if len(candidates) == 0 {
			p.println(FormatSuccess("No transactions left to reconcile."))
			return nil
		}

		p.println("")
		p.println(RenderCandidateTable(candidates))
		p.print(FormatPrompt(fmt.Sprintf("Pick a transaction [1-%d], q to quit", len(candidates))))

		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return endOfInput(err)
		}
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "q") || strings.EqualFold(line, "quit") {
			return nil
		}

		n, convErr := strconv.Atoi(line)
		if convErr != nil || n < 1 || n > len(candidates) {
			p.println(FormatWarning(fmt.Sprintf("%q is not a transaction number", line)))
			continue
		}

		if err := p.reviewOne(ctx, reviewer, candidates[n-1]); err != nil {
			return err
		}
	}
}

// reviewOne opens c, collects a tag and a decision, and reports the result.
func (p *ReviewPrompter) reviewOne(ctx context.Context, reviewer Reviewer, c model.Candidate) error {
	if err := reviewer.Open(c.ID); err != nil {
		p.println(FormatError(common.UserMessage(err)))
		return nil
	}

	p.println(RenderBox(fmt.Sprintf("%s  %s", FormatAmount(c), SubtleStyle.Render(c.Address)), c.Body))

	for {
		p.print(FormatPrompt("Tag"))
		tag, err := p.reader.ReadLine(ctx)
		if err != nil {
			_ = reviewer.Cancel()
			return endOfInput(err)
		}
		if err := reviewer.UpdateTag(tag); err != nil {
			p.println(FormatError(common.UserMessage(err)))
			_ = reviewer.Cancel()
			return nil
		}

		p.print(FormatPrompt("[c]onfirm, [e]dit tag, [x] cancel"))
		choice, err := p.reader.ReadLine(ctx)
		if err != nil {
			_ = reviewer.Cancel()
			return endOfInput(err)
		}

		switch strings.ToLower(choice) {
		case "c", "confirm", "y", "yes":
			p.confirm(ctx, reviewer)
			return nil
		case "e", "edit":
			continue
		default:
			if err := reviewer.Cancel(); err != nil {
				p.println(FormatError(common.UserMessage(err)))
			}
			p.stats.Cancelled++
			p.println(FormatInfo("Cancelled."))
			return nil
		}
	}
}

func (p *ReviewPrompter) confirm(ctx context.Context, reviewer Reviewer) {
	outcome, err := reviewer.Confirm(ctx)
	if err != nil {
		p.stats.Failed++
		p.println(FormatError(common.UserMessage(err)))
		if outcome != nil && outcome.RequestID != "" {
			p.println(SubtleStyle.Render("  request " + outcome.RequestID))
		}
		return
	}

	p.stats.Reconciled++
	p.println(FormatSuccess("Added to ledger (request " + outcome.RequestID + ")"))
	if outcome.PruneErr != nil {
		p.stats.PruneFails++
		p.println(FormatWarning("The message could not be deleted from the inbox."))
	}
}

// PrintSummary writes the run's counters.
func (p *ReviewPrompter) PrintSummary() {
	s := p.stats
	content := fmt.Sprintf("Reconciled: %d\nFailed:     %d\nCancelled:  %d", s.Reconciled, s.Failed, s.Cancelled)
	if s.PruneFails > 0 {
		content += fmt.Sprintf("\nNot pruned: %d", s.PruneFails)
	}
	p.println(RenderBox("Review summary", content))
}

func (p *ReviewPrompter) print(s string) {
	_, _ = io.WriteString(p.writer, s)
}

func (p *ReviewPrompter) println(s string) {
	_, _ = io.WriteString(p.writer, s+"\n")
}

// endOfInput turns a closed input stream into a clean stop.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
