package e2e

import (
	"github.com/cucumber/godog"

	"veil/e2e/steps/common"
	"veil/e2e/steps/data"
	"veil/e2e/steps/session"
)

// RegisterSteps registers step definitions from every step package.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	session.RegisterSteps(ctx, tc)
	data.RegisterSteps(ctx, tc)
}
