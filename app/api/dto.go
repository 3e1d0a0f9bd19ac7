package api

import (
	"healcure/app/i18n"
	"healcure/app/service/conversation"
	"healcure/app/service/detection"
)

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LandingResponse struct {
	Locale      i18n.Locale         `json:"locale"`
	ToggleLabel string              `json:"toggle_label"`
	Copy        map[i18n.Key]string `json:"copy"`
}

type StartSessionRequest struct {
	Lang string `json:"lang"`
}

// SessionResponse is a session snapshot plus the copy the chat screen shows.
type SessionResponse struct {
	conversation.Snapshot

	ToggleLabel string `json:"toggle_label"`
	Placeholder string `json:"placeholder"`
	Typing      string `json:"typing,omitempty"`
}

type SubmitMessageRequest struct {
	Text string `json:"text"`
}

type SubmitMessageResponse struct {
	User  conversation.Message  `json:"user"`
	Reply *conversation.Message `json:"reply,omitempty"`
}

type SpeechResponse struct {
	Speech conversation.PlaybackState `json:"speech"`
}

type ImageResponse struct {
	Image    detection.ImageHandle `json:"image"`
	Analysis AnalysisResponse      `json:"analysis"`
}

type AnalysisResponse struct {
	Status  detection.AnalysisStatus `json:"status"`
	Message string                   `json:"message"`
}

func newSessionResponse(snapshot conversation.Snapshot) SessionResponse {
	response := SessionResponse{
		Snapshot:    snapshot,
		ToggleLabel: snapshot.Locale.ToggleLabel(),
		Placeholder: i18n.Text(snapshot.Locale, i18n.ChatPlaceholder),
	}
	if snapshot.Composing {
		response.Typing = i18n.Text(snapshot.Locale, i18n.Typing)
	}

	return response
}

func newImageResponse(locale i18n.Locale, handle detection.ImageHandle, analysis detection.Analysis) ImageResponse {
	return ImageResponse{
		Image: handle,
		Analysis: AnalysisResponse{
			Status:  analysis.Status,
			Message: i18n.Text(locale, analysis.Message),
		},
	}
}
