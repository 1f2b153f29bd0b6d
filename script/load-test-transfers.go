package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TransferRequest represents the transfer payload
type TransferRequest struct {
	FromAccountID uint64 `json:"fromAccountId"`
	ToAccountID   uint64 `json:"toAccountId"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
}

// TransferResult represents the API response for a transfer
type TransferResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Replayed bool   `json:"replayed,omitempty"`
}

// AuditResponse represents the API response for an account audit
type AuditResponse struct {
	AccountID  uint64 `json:"accountId"`
	Balance    int64  `json:"balance"`
	LedgerSum  int64  `json:"ledgerSum"`
	Consistent bool   `json:"consistent"`
}

// TestResult contains metrics for a single request
type TestResult struct {
	Success      bool
	Kind         string
	ResponseTime time.Duration
	StatusCode   int
	Error        error
}

// TestStats contains aggregated test statistics
type TestStats struct {
	TotalRequests      int
	SuccessfulRequests int
	RejectedRequests   int // business failures such as InsufficientBalance
	FailedRequests     int
	TotalTime          time.Duration
	ResponseTimes      []time.Duration
	ErrorCounts        map[string]int
	Lock               sync.Mutex
}

func (s *TestStats) record(result TestResult) {
	s.Lock.Lock()
	defer s.Lock.Unlock()

	s.ResponseTimes = append(s.ResponseTimes, result.ResponseTime)
	switch {
	case result.Success:
		s.SuccessfulRequests++
	case result.Error == nil:
		s.RejectedRequests++
		s.ErrorCounts[result.Kind]++
	default:
		s.FailedRequests++
		s.ErrorCounts[result.Error.Error()]++
	}
}

func main() {
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	totalRequests := flag.Int("n", 500, "Total number of transfers to send")
	accountIDsStr := flag.String("a", "1,2,3,4,5", "Comma-separated list of account IDs to move coins between")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	maxAmount := flag.Int64("max", 50, "Largest transfer amount in coins")
	delayMs := flag.Int("delay", 0, "Delay between requests per worker in milliseconds")
	flag.Parse()

	var accountIDs []uint64
	for _, idStr := range strings.Split(*accountIDsStr, ",") {
		var id uint64
		if _, err := fmt.Sscanf(strings.TrimSpace(idStr), "%d", &id); err == nil && id > 0 {
			accountIDs = append(accountIDs, id)
		}
	}
	if len(accountIDs) < 2 {
		fmt.Println("At least two account IDs are required")
		os.Exit(2)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	ctx := context.Background()

	before, err := totalBalance(ctx, client, *baseURL, accountIDs)
	if err != nil {
		fmt.Printf("Failed to read starting balances: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Load testing transfers across %d accounts: %v\n", len(accountIDs), accountIDs)
	fmt.Printf("Concurrency: %d workers, total requests: %d\n", *concurrency, *totalRequests)
	fmt.Printf("Coins in circulation before: %d\n", before)

	stats := &TestStats{
		TotalRequests: *totalRequests,
		ErrorCounts:   make(map[string]int),
		ResponseTimes: make([]time.Duration, 0, *totalRequests),
	}

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < *totalRequests; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	startTime := time.Now()
	for w := 0; w < *concurrency; w++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			for range jobs {
				if *delayMs > 0 {
					time.Sleep(time.Duration(*delayMs) * time.Millisecond)
				}

				from := accountIDs[rng.Intn(len(accountIDs))]
				to := accountIDs[rng.Intn(len(accountIDs))]
				for to == from {
					to = accountIDs[rng.Intn(len(accountIDs))]
				}

				stats.record(sendTransfer(gctx, client, *baseURL, TransferRequest{
					FromAccountID: from,
					ToAccountID:   to,
					Amount:        1 + rng.Int63n(*maxAmount),
					Description:   "load test",
				}))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Printf("Load test aborted: %v\n", err)
		os.Exit(1)
	}
	stats.TotalTime = time.Since(startTime)

	printResults(stats)

	after, err := totalBalance(ctx, client, *baseURL, accountIDs)
	if err != nil {
		fmt.Printf("Failed to read final balances: %v\n", err)
		os.Exit(1)
	}

	inconsistent, err := auditAccounts(ctx, client, *baseURL, accountIDs)
	if err != nil {
		fmt.Printf("Failed to audit accounts: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n================= CONSERVATION =================")
	fmt.Printf("Coins in circulation after: %d\n", after)
	if after != before || len(inconsistent) > 0 {
		fmt.Printf("FAILED: before=%d after=%d inconsistent accounts=%v\n", before, after, inconsistent)
		os.Exit(1)
	}
	fmt.Println("OK: total supply unchanged and every balance matches its ledger")
}

func sendTransfer(ctx context.Context, client *http.Client, baseURL string, transfer TransferRequest) TestResult {
	body, err := json.Marshal(transfer)
	if err != nil {
		return TestResult{Error: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return TestResult{Error: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	start := time.Now()
	resp, err := client.Do(req)
	result := TestResult{ResponseTime: time.Since(start)}
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	var transferResult TransferResult
	if err := json.NewDecoder(resp.Body).Decode(&transferResult); err != nil {
		result.Error = fmt.Errorf("HTTP status code %d", resp.StatusCode)
		return result
	}

	switch {
	case transferResult.Success:
		result.Success = true
	case resp.StatusCode == http.StatusUnprocessableEntity:
		result.Kind = transferResult.Error
	default:
		result.Error = fmt.Errorf("HTTP status code %d (%s)", resp.StatusCode, transferResult.Error)
	}
	return result
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP status code %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// totalBalance sums balances read from the store through the audit endpoint, which never uses the cache
func totalBalance(ctx context.Context, client *http.Client, baseURL string, accountIDs []uint64) (int64, error) {
	var total int64
	for _, id := range accountIDs {
		var audit AuditResponse
		if err := getJSON(ctx, client, fmt.Sprintf("%s/api/v1/accounts/%d/audit", baseURL, id), &audit); err != nil {
			return 0, err
		}
		total += audit.Balance
	}
	return total, nil
}

func auditAccounts(ctx context.Context, client *http.Client, baseURL string, accountIDs []uint64) ([]uint64, error) {
	var inconsistent []uint64
	for _, id := range accountIDs {
		var audit AuditResponse
		if err := getJSON(ctx, client, fmt.Sprintf("%s/api/v1/accounts/%d/audit", baseURL, id), &audit); err != nil {
			return nil, err
		}
		if !audit.Consistent {
			inconsistent = append(inconsistent, id)
		}
	}
	return inconsistent, nil
}

func printResults(stats *TestStats) {
	tps := float64(stats.SuccessfulRequests+stats.RejectedRequests) / stats.TotalTime.Seconds()

	var total time.Duration
	for _, d := range stats.ResponseTimes {
		total += d
	}

	var avg, p50, p90, p99, maxTime time.Duration
	if n := len(stats.ResponseTimes); n > 0 {
		sorted := append([]time.Duration(nil), stats.ResponseTimes...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		avg = total / time.Duration(n)
		p50 = sorted[n*50/100]
		p90 = sorted[n*90/100]
		p99 = sorted[n*99/100]
		maxTime = sorted[n-1]
	}

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Total Requests:      %d\n", stats.TotalRequests)
	fmt.Printf("Applied Transfers:   %d\n", stats.SuccessfulRequests)
	fmt.Printf("Rejected Transfers:  %d\n", stats.RejectedRequests)
	fmt.Printf("Failed Requests:     %d\n", stats.FailedRequests)
	fmt.Printf("Total Test Time:     %.2f seconds\n", stats.TotalTime.Seconds())
	fmt.Printf("Throughput:          %.2f requests/second\n", tps)

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	fmt.Printf("Average Response:    %v\n", avg)
	fmt.Printf("P50 Response:        %v\n", p50)
	fmt.Printf("P90 Response:        %v\n", p90)
	fmt.Printf("P99 Response:        %v\n", p99)
	fmt.Printf("Maximum Response:    %v\n", maxTime)

	if len(stats.ErrorCounts) > 0 {
		fmt.Println("\n----------------- ERROR DISTRIBUTION -----------------")
		for errMsg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d\n", errMsg, count)
		}
	}
}
