package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"adpulse/internal/worker"
)

// Processor is the interface batch jobs run against.
type Processor interface {
	ProcessSegment(ctx context.Context, req SegmentRequest) (*Outcome, error)
}

// SegmentJob analyzes one segment on the worker pool.
type SegmentJob struct {
	Request   SegmentRequest
	Processor Processor
}

// Execute runs the segment analysis.
func (j *SegmentJob) Execute(ctx context.Context) worker.Result {
	outcome, err := j.Processor.ProcessSegment(ctx, j.Request)
	return &SegmentResult{
		Request: j.Request,
		Outcome: outcome,
		Error:   err,
	}
}

// SegmentResult is the result of one batch segment job.
type SegmentResult struct {
	Request SegmentRequest
	Outcome *Outcome
	Error   error
}

// GetError returns the job error.
func (r *SegmentResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many segments concurrently.
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a batch processor with the given concurrency.
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessSegments analyzes the given segments on a worker pool. Results come
// back in completion order, not submission order.
func (b *BatchProcessor) ProcessSegments(ctx context.Context, requests []SegmentRequest) []*SegmentResult {
	if len(requests) == 0 {
		return []*SegmentResult{}
	}

	pool := worker.NewPool(b.concurrency)
	pool.Start()

	for _, req := range requests {
		pool.Submit(&SegmentJob{
			Request:   req,
			Processor: b.processor,
		})
	}

	results := pool.Wait()

	segmentResults := make([]*SegmentResult, len(results))
	for i, result := range results {
		segmentResults[i] = result.(*SegmentResult)
	}

	return segmentResults
}

// ProcessFile reads segment windows from a file and analyzes them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, mediaRef, path, businessName, businessType string) ([]*SegmentResult, error) {
	requests, err := ReadSegmentsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}

	for i := range requests {
		requests[i].MediaRef = mediaRef
		requests[i].BusinessName = businessName
		requests[i].BusinessType = businessType
	}

	return b.ProcessSegments(ctx, requests), nil
}

// ReadSegmentsFromFile parses segment windows from a file, one "start end"
// pair of seconds per line. Empty lines and #-comments are skipped; duplicate
// windows are kept — re-analyzing a segment is a valid request.
func ReadSegmentsFromFile(path string) ([]SegmentRequest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var requests []SegmentRequest

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"start end\", got %q", lineNo, line)
		}

		start, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid start %q", lineNo, fields[0])
		}
		end, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end %q", lineNo, fields[1])
		}
		if start < 0 || end <= start {
			return nil, fmt.Errorf("line %d: invalid window [%d,%d)", lineNo, start, end)
		}

		requests = append(requests, SegmentRequest{StartSec: start, EndSec: end})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return requests, nil
}
