// Package tensalis provides the official Go SDK for the Tensalis
// Hallucination Detection API.
//
// Tensalis verifies LLM-generated responses against source context and
// returns a structured verdict (VERIFIED, BLOCKED, or WARNING). The
// detection engine itself runs server-side; this package only speaks the
// HTTPS wire contract.
//
// # Quick Start
//
//	client, err := tensalis.New(tensalis.Config{APIKey: os.Getenv("TENSALIS_API_KEY")})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Verify(ctx,
//		"The policy allows 90-day returns.",
//		[]string{"Returns accepted within 30 days."},
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if result.IsBlocked() {
//		fmt.Println("hallucination detected:", result.Reason)
//	}
//
// # Error Handling
//
// Every error returned by the SDK implements the Error marker interface and
// belongs to a closed set of variants: *APIError, *AuthenticationError,
// *RateLimitError, *TimeoutError, *ValidationError, *ConnectionError, and
// *ClientError. Match specific variants with errors.As:
//
//	var rle *tensalis.RateLimitError
//	if errors.As(err, &rle) {
//		time.Sleep(rle.RetryAfter)
//	}
//
// The transport retries transient failures (network errors, timeouts, 5xx,
// 429) with exponential backoff; it never fabricates a verdict on failure.
//
// # Streaming
//
// VerifyStream annotates an incremental sequence of generated-text chunks
// with interim verdicts, enabling early termination on detected drift:
//
//	for event, err := range client.VerifyStream(ctx, chunks, docs) {
//		if err != nil {
//			return err
//		}
//		if event.Status == tensalis.StatusBlocked {
//			break
//		}
//		fmt.Print(event.Text)
//	}
package tensalis
