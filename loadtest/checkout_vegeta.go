package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vinayak200306/Veluno/pkg/logger"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// checkoutResp captures the envelope fields needed for post-run analysis
type checkoutResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func main() {
	var (
		server      = flag.String("server", "http://localhost:8080", "API server base URL")
		productID   = flag.Int64("product", 1, "Product ID to order")
		productList = flag.String("productList", "", "Comma separated product IDs (optional: random pick per request)")
		size        = flag.String("size", "M", "Size to order")
		quantity    = flag.Int("quantity", 1, "Quantity per order")
		rate        = flag.Int("rate", 100, "Requests per second")
		duration    = flag.String("duration", "30s", "Attack duration (e.g. 10s, 1m)")
		outJSON     = flag.String("out", "vegeta_results.json", "Summary JSON output file")
	)
	flag.Parse()

	attackDuration, err := time.ParseDuration(*duration)
	if err != nil {
		logger.Fatal("invalid duration", "err", err)
	}

	var productIDs []int64
	for _, part := range strings.Split(*productList, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil && id > 0 {
			productIDs = append(productIDs, id)
		}
	}
	rand.Seed(time.Now().UnixNano())

	// 每个请求一个独立客户身份，避免下游按邮箱聚合时互相干扰
	var counter uint64
	targeter := func(t *vegeta.Target) error {
		idx := atomic.AddUint64(&counter, 1)
		pid := *productID
		if len(productIDs) > 0 {
			pid = productIDs[rand.Intn(len(productIDs))]
		}
		bodyMap := map[string]any{
			"customer_name": fmt.Sprintf("Load Tester %d", idx),
			"email":         fmt.Sprintf("loadtest%d@example.com", idx),
			"phone":         fmt.Sprintf("9%09d", idx%1000000000),
			"address": map[string]any{
				"street":      "1 Test Street",
				"city":        "Bengaluru",
				"state":       "Karnataka",
				"postal_code": "560001",
			},
			"products": []map[string]any{{
				"product_id": pid,
				"size":       *size,
				"quantity":   *quantity,
			}},
			"payment_method": "cod",
		}
		b, _ := json.Marshal(bodyMap)
		t.Method = http.MethodPost
		t.URL = fmt.Sprintf("%s/api/v1/checkout", *server)
		t.Body = b
		t.Header = http.Header{}
		t.Header.Set("Content-Type", "application/json")
		return nil
	}

	attacker := vegeta.NewAttacker()
	var metrics vegeta.Metrics
	created := uint64(0)
	stockRejected := uint64(0)
	total := uint64(0)

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, attackDuration, "checkout_test") {
		metrics.Add(res)
		atomic.AddUint64(&total, 1)
		var cr checkoutResp
		if err := json.Unmarshal(res.Body, &cr); err == nil {
			switch cr.Code {
			case 0:
				atomic.AddUint64(&created, 1)
			case 30002: // insufficient stock
				atomic.AddUint64(&stockRejected, 1)
			}
		}
	}
	metrics.Close()

	summary := map[string]any{
		"attack": map[string]any{
			"rate_rps": *rate,
			"duration": attackDuration.String(),
		},
		"http": map[string]any{
			"requests":     metrics.Requests,
			"success_rate": metrics.Success,
			"p95_ms":       float64(metrics.Latencies.P95) / float64(time.Millisecond),
			"p99_ms":       float64(metrics.Latencies.P99) / float64(time.Millisecond),
		},
		"checkout": map[string]any{
			"orders_created": created,
			"stock_rejected": stockRejected,
			"total":          total,
		},
	}

	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))
	if err := os.WriteFile(*outJSON, b, 0o644); err != nil {
		logger.Error("write summary failed", "err", err)
	}
}
