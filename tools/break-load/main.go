package main

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Hammers the break endpoints of a running API. Every worker flips one seeded
// user between break and active, so concurrent start/end calls on the same
// user race each other and some are expected to be rejected with 409.
func main() {
	// Configuration
	baseURL := "http://localhost:8080/api/v1/users"

	numUsers := 10
	workersPerUser := 20
	togglesPerWorker := 10
	totalRequests := numUsers * workersPerUser * togglesPerWorker * 2
	concurrency := 50 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d users, %d workers each, %d requests in total with concurrency %d\n",
		numUsers, workersPerUser, totalRequests, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // Semaphore to limit concurrency

	var successCount int64
	var rejectedCount int64
	var failCount int64

	post := func(url string) {
		resp, err := http.Post(url, "application/json", nil)
		if err != nil {
			atomic.AddInt64(&failCount, 1)
			return
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			atomic.AddInt64(&successCount, 1)
		case resp.StatusCode == http.StatusConflict:
			atomic.AddInt64(&rejectedCount, 1)
		default:
			atomic.AddInt64(&failCount, 1)
		}
	}

	startTime := time.Now()

	for i := 0; i < numUsers; i++ {
		userURL := fmt.Sprintf("%s/user%d/break", baseURL, i+1)

		for w := 0; w < workersPerUser; w++ {
			wg.Add(1)
			sem <- struct{}{} // Acquire token

			go func() {
				defer wg.Done()
				defer func() { <-sem }() // Release token

				for j := 0; j < togglesPerWorker; j++ {
					post(userURL + "/start")
					post(userURL + "/end")
				}
			}()
		}
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Rejected (409): %d\n", rejectedCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
}
