package session

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the scenario state these steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	SetToken(token string)
	SetSessionID(id string)
	GetSessionID() string
}

// RegisterSteps registers session lifecycle steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &sessionSteps{tc: tc}

	ctx.Step(`^I create an? (anonymous|pseudo-anonymous|identified) session for user "([^"]*)" at company "([^"]*)"$`, steps.createSession)
	ctx.Step(`^I request (\d+) sessions for user "([^"]*)" at company "([^"]*)"$`, steps.createSessions)
	ctx.Step(`^I fetch my session$`, steps.fetchSession)
	ctx.Step(`^I have no session token$`, steps.dropToken)
}

type sessionSteps struct {
	tc TestContext
}

func (s *sessionSteps) createSession(_ context.Context, level, userID, companyID string) error {
	err := s.tc.POST("/v1/sessions", map[string]string{
		"external_user_id": userID,
		"company_id":       companyID,
		"access_level":     level,
	})
	if err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 201 {
		return nil
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	id, err := s.tc.GetResponseField("session_id")
	if err != nil {
		return err
	}
	s.tc.SetToken(fmt.Sprint(token))
	s.tc.SetSessionID(fmt.Sprint(id))
	return nil
}

// createSessions fires n requests and leaves the last response in place.
func (s *sessionSteps) createSessions(ctx context.Context, n int, userID, companyID string) error {
	for range n {
		if err := s.createSession(ctx, "anonymous", userID, companyID); err != nil {
			return err
		}
	}
	return nil
}

func (s *sessionSteps) fetchSession(_ context.Context) error {
	if s.tc.GetSessionID() == "" {
		return fmt.Errorf("no session created in this scenario")
	}
	return s.tc.GET("/v1/sessions/"+s.tc.GetSessionID(), nil)
}

func (s *sessionSteps) dropToken(_ context.Context) error {
	s.tc.SetToken("")
	return nil
}
