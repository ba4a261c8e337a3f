package common

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the scenario state these steps need.
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastResponseHeader(name string) string
	SetClientIP(ip string)
	Save(name string)
}

// RegisterSteps registers background, assertion and bookkeeping steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the gateway is healthy$`, steps.gatewayIsHealthy)
	ctx.Step(`^requests come from IP "([^"]*)"$`, steps.requestsComeFromIP)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be present$`, steps.fieldShouldBePresent)
	ctx.Step(`^the response should not contain "([^"]*)"$`, steps.bodyShouldNotContain)
	ctx.Step(`^the response header "([^"]*)" should be present$`, steps.headerShouldBePresent)
	ctx.Step(`^I save the response as "([^"]*)"$`, steps.saveResponse)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) gatewayIsHealthy(ctx context.Context) error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, 200)
}

func (s *commonSteps) requestsComeFromIP(_ context.Context, ip string) error {
	s.tc.SetClientIP(ip)
	return nil
}

func (s *commonSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(_ context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("field %q: expected %q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBePresent(_ context.Context, field string) error {
	_, err := s.tc.GetResponseField(field)
	return err
}

func (s *commonSteps) bodyShouldNotContain(_ context.Context, text string) error {
	if bytes.Contains(s.tc.GetLastResponseBody(), []byte(text)) {
		return fmt.Errorf("response unexpectedly contains %q", text)
	}
	return nil
}

func (s *commonSteps) headerShouldBePresent(_ context.Context, name string) error {
	if s.tc.GetLastResponseHeader(name) == "" {
		return fmt.Errorf("response header %q missing", name)
	}
	return nil
}

func (s *commonSteps) saveResponse(_ context.Context, name string) error {
	s.tc.Save(name)
	return nil
}
