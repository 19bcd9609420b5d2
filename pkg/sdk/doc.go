// Package sdk is a typed HTTP client for a sitescore server running
// in serve mode.
//
//	client, _ := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//
//	report, _ := client.GetReport(ctx)
//	for _, row := range report.Rows {
//	    fmt.Println(row.URL, row.State)
//	}
//
//	row, err := client.GetScore(ctx, "https://a.example/")
//	if errors.Is(err, sdk.ErrRowNotFound) {
//	    // URL was not part of the run
//	}
//
// The server publishes its report once the scoring run finishes;
// until then report endpoints fail with ErrRunNotReady. Use Readyz to
// poll for readiness.
package sdk
