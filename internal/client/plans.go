package client

import (
	"bytes"
	"context"
	"etape/training-hub/internal/domain"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan is a training plan with its description rendered from Markdown.
type Plan struct {
	domain.TrainingPlan
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
}

type PlanBundle struct {
	Plan      Plan                    `json:"plan"`
	Workouts  []domain.PlannedWorkout `json:"workouts"`
	Goals     []domain.PlannedGoal    `json:"goals"`
	Nutrition []domain.NutritionPlan  `json:"nutrition"`
}

type PlanInput struct {
	AthleteID   primitive.ObjectID `json:"athleteId"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	StartDate   *time.Time         `json:"startDate,omitempty"`
	EndDate     *time.Time         `json:"endDate,omitempty"`
}

// BatchPlanInput creates a plan and its children in one request.
type BatchPlanInput struct {
	Plan      PlanInput               `json:"plan"`
	Workouts  []domain.PlannedWorkout `json:"workouts,omitempty"`
	Goals     []domain.PlannedGoal    `json:"goals,omitempty"`
	Nutrition []domain.NutritionPlan  `json:"nutrition,omitempty"`
}

// Plans lists the caller's plans. A non-zero athleteID narrows to one athlete.
func (c *Client) Plans(ctx context.Context, athleteID primitive.ObjectID) ([]Plan, error) {
	q := url.Values{}
	if !athleteID.IsZero() {
		q.Set("athleteId", athleteID.Hex())
	}
	var out []Plan
	if err := c.do(ctx, http.MethodGet, "/training-plans", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Plan returns a plan with all its children.
func (c *Client) Plan(ctx context.Context, planID primitive.ObjectID) (*PlanBundle, error) {
	var out PlanBundle
	if err := c.do(ctx, http.MethodGet, idPath("/training-plans/%s", planID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePlan(ctx context.Context, in PlanInput) (*Plan, error) {
	var out Plan
	if err := c.do(ctx, http.MethodPost, "/training-plans", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePlanBatch(ctx context.Context, in BatchPlanInput) (*PlanBundle, error) {
	var out PlanBundle
	if err := c.do(ctx, http.MethodPost, "/training-plans/batch", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePlan(ctx context.Context, planID primitive.ObjectID, fields map[string]any) (*Plan, error) {
	var out Plan
	if err := c.do(ctx, http.MethodPut, idPath("/training-plans/%s", planID), nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlan removes a plan with its children and documents.
func (c *Client) DeletePlan(ctx context.Context, planID primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, idPath("/training-plans/%s", planID), nil, nil, nil)
}

// --- Documents ---

func (c *Client) UploadDocument(ctx context.Context, planID primitive.ObjectID, filename string, content io.Reader, description string) (*domain.TrainingDocument, error) {
	body, contentType, err := multipartFile(filename, content, map[string]string{"description": description})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, idPath("/training-plans/%s/documents", planID), nil, body, contentType)
	if err != nil {
		return nil, err
	}
	var out domain.TrainingDocument
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Documents(ctx context.Context, planID primitive.ObjectID) ([]domain.TrainingDocument, error) {
	var out []domain.TrainingDocument
	if err := c.do(ctx, http.MethodGet, idPath("/training-plans/%s/documents", planID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download is a document body being streamed. Callers must close Body.
type Download struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

func (c *Client) DownloadDocument(ctx context.Context, planID, docID primitive.ObjectID) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, idPath("/training-plans/%s/documents/%s/download", planID, docID), nil, nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	d := &Download{ContentType: resp.Header.Get("Content-Type"), Body: resp.Body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.Filename = params["filename"]
	}
	return d, nil
}

func (c *Client) DeleteDocument(ctx context.Context, planID, docID primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, idPath("/training-plans/%s/documents/%s", planID, docID), nil, nil, nil)
}

// --- AI plan builder and chat ---

// ParsePlanDocument sends a PDF or text plan to be turned into a structured plan.
func (c *Client) ParsePlanDocument(ctx context.Context, filename string, content io.Reader) (*domain.ParsedPlan, error) {
	body, contentType, err := multipartFile(filename, content, nil)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/training-plans/parse-pdf", nil, body, contentType)
	if err != nil {
		return nil, err
	}
	var out domain.ParsedPlan
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFromParsed creates one plan per athlete, in order, from a parsed plan.
func (c *Client) CreateFromParsed(ctx context.Context, athleteIDs []primitive.ObjectID, start time.Time, plan domain.ParsedPlan) ([]Plan, error) {
	ids := make([]string, len(athleteIDs))
	for i, id := range athleteIDs {
		ids[i] = id.Hex()
	}
	in := struct {
		AthleteIDs []string          `json:"athleteIds"`
		StartDate  string            `json:"startDate"`
		Plan       domain.ParsedPlan `json:"plan"`
	}{ids, start.Format(time.DateOnly), plan}

	var out struct {
		Plans []Plan `json:"plans"`
	}
	if err := c.do(ctx, http.MethodPost, "/training-plans/from-parsed", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Plans, nil
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) Chat(ctx context.Context, message string, history []ChatTurn) (string, error) {
	in := struct {
		Message string     `json:"message"`
		History []ChatTurn `json:"history"`
	}{message, history}
	var out struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat", nil, in, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

func multipartFile(filename string, content io.Reader, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", filename, err)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
