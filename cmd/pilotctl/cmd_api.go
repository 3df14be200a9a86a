// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

const (
	defaultPilotHost = "localhost"
	defaultPilotPort = 12310
)

var apiClient = &http.Client{Timeout: 2 * time.Minute}

// getPilotBaseURL returns the server address: flag, then env, then default.
func getPilotBaseURL() string {
	if serverURL != "" {
		return strings.TrimRight(serverURL, "/")
	}
	if envURL := os.Getenv("PILOT_SERVER_URL"); envURL != "" {
		return strings.TrimRight(envURL, "/")
	}
	return fmt.Sprintf("http://%s:%d", defaultPilotHost, defaultPilotPort)
}

func postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("could not encode request: %w", err)
	}
	resp, err := apiClient.Post(getPilotBaseURL()+path, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("could not reach the pilot server: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func getJSON(path string, out any) error {
	resp, err := apiClient.Get(getPilotBaseURL() + path)
	if err != nil {
		return fmt.Errorf("could not reach the pilot server: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

func runDigest(cmd *cobra.Command, args []string) {
	fmt.Printf("Triggering a digest run for %q (dry-run: %v)...\n", productID, dryRun)

	var result datatypes.DigestRunResult
	err := postJSON("/v1/digests", datatypes.TriggerDigestRequest{
		ProductID: productID,
		DryRun:    dryRun,
	}, &result)
	if err != nil {
		log.Fatalf("Digest run failed: %v", err)
	}
	if !result.OK {
		log.Fatalf("Digest run failed: %s", result.Error)
	}

	fmt.Printf("Run completed in %dms\n", result.DurationMs)
	if result.Digest != nil {
		printDigest(*result.Digest)
	}
	fmt.Println("Sources:")
	for _, src := range result.Sources {
		fmt.Printf("  - %s\n", src)
	}
}

func runList(cmd *cobra.Command, args []string) {
	var response struct {
		Digests []datatypes.DigestEntry `json:"digests"`
	}
	if err := getJSON("/v1/digests", &response); err != nil {
		log.Fatalf("Could not list digests: %v", err)
	}
	if len(response.Digests) == 0 {
		fmt.Println("No digests yet. Run 'pilotctl run' to create one.")
		return
	}
	for _, entry := range response.Digests {
		fmt.Printf("%s  %-8s  %s  %s\n",
			entry.Date.Format("2006-01-02 15:04"), entry.Status, entry.ID, entry.Title)
	}
}

func runAsk(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")

	var response datatypes.ChatResponse
	err := postJSON("/v1/chat", datatypes.ChatRequest{Message: question}, &response)
	if err != nil {
		log.Fatalf("Could not ask the assistant: %v", err)
	}

	fmt.Println(response.Reply.Content)
	if len(response.References) > 0 {
		fmt.Printf("\n(grounded on %d digests, latest %s)\n",
			len(response.References), response.References[0].Date.Format("2006-01-02"))
	}
}

func runHistory(cmd *cobra.Command, args []string) {
	metricID := args[0]

	var response struct {
		Product string `json:"product"`
		Metric  string `json:"metric"`
		Points  []struct {
			Time  time.Time `json:"time"`
			Value float64   `json:"value"`
		} `json:"points"`
	}
	path := fmt.Sprintf("/v1/history?product=%s&metric=%s&days=%d",
		url.QueryEscape(productID), url.QueryEscape(metricID), historyDays)
	if err := getJSON(path, &response); err != nil {
		log.Fatalf("Could not query metric history: %v", err)
	}

	if len(response.Points) == 0 {
		fmt.Printf("No recorded history for %s/%s in the last %d days.\n",
			response.Product, response.Metric, historyDays)
		return
	}
	for _, point := range response.Points {
		fmt.Printf("%s  %.2f\n", point.Time.Format("2006-01-02 15:04"), point.Value)
	}
}

func printDigest(entry datatypes.DigestEntry) {
	fmt.Printf("\n%s [%s]\n%s\n", entry.Title, strings.ToUpper(string(entry.Status)), entry.Summary)
	if len(entry.Metrics) > 0 {
		fmt.Println("Metrics:")
		for _, metric := range entry.Metrics {
			fmt.Printf("  - %s: %s (%s, %s)\n", metric.Label, metric.Value, metric.Delta, metric.Trend)
		}
	}
	if len(entry.Incidents) > 0 {
		fmt.Println("Incidents:")
		for _, incident := range entry.Incidents {
			fmt.Printf("  - %s\n", incident)
		}
	}
}
