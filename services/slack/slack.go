// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package slack implements the Slack-facing contract: the url_verification
// handshake, the verification-token gate, slash-command text replies, and
// the Block Kit digest message.
package slack

import (
	"fmt"
	"os"
	"strings"

	"github.com/slack-go/slack"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// NoDigestReply is the slash-command reply when the store is empty.
const NoDigestReply = "No digest available. Run /digest run to create one."

// highlightDescriptionLimit truncates highlight descriptions in Block Kit
// messages to keep sections within Slack's text limits.
const highlightDescriptionLimit = 100

// Service renders Slack replies. Token is the optional verification token;
// empty disables the gate.
type Service struct {
	Token string

	// AppURL backs the "View Details" button; defaults to localhost.
	AppURL string
}

// NewServiceFromEnv reads SLACK_VERIFICATION_TOKEN and APP_URL.
func NewServiceFromEnv() *Service {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	return &Service{
		Token:  os.Getenv("SLACK_VERIFICATION_TOKEN"),
		AppURL: appURL,
	}
}

// VerifyToken reports whether a form token passes the gate. An unset
// expected token disables verification entirely.
func (s *Service) VerifyToken(token string) bool {
	return s.Token == "" || token == s.Token
}

// CommandReply renders the plain-text slash-command reply. "week" in either
// the command or its text selects the weekly variant; latest is nil when no
// digest exists.
func (s *Service) CommandReply(command, text string, latest *datatypes.DigestEntry) string {
	if latest == nil {
		return NoDigestReply
	}

	topMetric := ""
	if len(latest.Metrics) > 0 {
		topMetric = latest.Metrics[0].Value
	}

	if strings.Contains(command, "week") || strings.Contains(text, "week") {
		return fmt.Sprintf("Weekly digest: %s\nTop metric: %s. View more in Release Pilot.",
			latest.Summary, topMetric)
	}
	return fmt.Sprintf("Today: %s\nTop metric: %s.", latest.Summary, topMetric)
}

// BuildDigestBlocks renders a digest as a Block Kit message: header,
// status/summary section, then optional highlight, metric, and incident
// sections, closed by the action buttons. Text is emoji-free; visual
// styling is the client's concern.
func (s *Service) BuildDigestBlocks(d datatypes.DigestEntry) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, d.Title, false, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*Status:* %s\n*Date:* %s\n\n%s",
					strings.ToUpper(string(d.Status)),
					d.Date.Format("2006-01-02 15:04 MST"),
					d.Summary),
				false, false),
			nil, nil),
		slack.NewDividerBlock(),
	}

	if len(d.Highlights) > 0 {
		lines := make([]string, 0, len(d.Highlights))
		for _, h := range d.Highlights {
			desc := h.Description
			if len(desc) > highlightDescriptionLimit {
				desc = desc[:highlightDescriptionLimit]
			}
			lines = append(lines, fmt.Sprintf("• *%s* - %s", h.Title, desc))
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				"*Release Highlights*\n"+strings.Join(lines, "\n"), false, false),
			nil, nil))
	}

	if len(d.Metrics) > 0 {
		lines := make([]string, 0, len(d.Metrics))
		for _, m := range d.Metrics {
			lines = append(lines, fmt.Sprintf("• %s: *%s* (%s, %s)", m.Label, m.Value, m.Delta, m.Trend))
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				"*Health Metrics*\n"+strings.Join(lines, "\n"), false, false),
			nil, nil))
	}

	if len(d.Incidents) > 0 {
		lines := make([]string, 0, len(d.Incidents))
		for _, incident := range d.Incidents {
			lines = append(lines, "• "+incident)
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				"*Incidents*\n"+strings.Join(lines, "\n"), false, false),
			nil, nil))
	}

	viewDetails := slack.NewButtonBlockElement("view_details", "",
		slack.NewTextBlockObject(slack.PlainTextType, "View Details", false, false))
	viewDetails.URL = s.AppURL
	acknowledge := slack.NewButtonBlockElement("acknowledge_digest", d.ID,
		slack.NewTextBlockObject(slack.PlainTextType, "Acknowledged", false, false))

	blocks = append(blocks, slack.NewActionBlock("digest_actions", viewDetails, acknowledge))
	return blocks
}

// BlockMessage wraps digest blocks in a slash-command response payload.
func (s *Service) BlockMessage(d datatypes.DigestEntry, responseType string) slack.Msg {
	return slack.Msg{
		ResponseType: responseType,
		Blocks:       slack.Blocks{BlockSet: s.BuildDigestBlocks(d)},
	}
}
