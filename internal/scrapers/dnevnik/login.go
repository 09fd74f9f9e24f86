package dnevnik

import (
	"context"
	"fmt"

	"peoplecards/internal/dom"

	"go.opentelemetry.io/otel/codes"
)

const (
	report_login_open_dnevnik    = "login.open-dnevnik"
	report_login_redirect        = "login.redirect-gosuslugi"
	report_login_credentials     = "login.credentials"
	report_login_submit          = "login.submit"
	report_login_postpone_prompt = "login.postpone-prompt"
)

// gosuslugi locators
const (
	locator_login_input    = "login_input"
	locator_password_input = "password_input"
	locator_login_button   = "login_button"
	locator_later_button   = "later_button"
)

const locator_login_with_gosuslugi = "login_with_gosuslugi"

// Login opens the dnevnik login page, follows it to gosuslugi and signs in
// with the configured credentials. Every step first checks that the session
// is where the step expects it to be.
func (s Scraper) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	err := s.login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Scraper) login(ctx context.Context) error {
	if s.creds.Login == "" || s.creds.Password == "" {
		s.tel.ReportWarning(report_login_credentials, fmt.Errorf("%s or %s is empty", EnvLogin, EnvPassword))
	}

	err := s.open(ctx, s.urls.Dnevnik.Login)
	if err != nil {
		s.tel.ReportBroken(report_login_open_dnevnik, err)
		return fmt.Errorf("open dnevnik login: %w", err)
	}
	err = s.requireLocation(report_login_open_dnevnik, s.urls.Dnevnik.Login)
	if err != nil {
		s.tel.ReportBroken(report_login_open_dnevnik, err)
		return err
	}

	button, err := s.find(nil, SERVICE_DNEVNIK, locator_login_with_gosuslugi)
	if err != nil {
		s.tel.ReportBroken(report_login_open_dnevnik, err)
		return err
	}
	err = s.session.Click(ctx, button)
	if err != nil {
		s.tel.ReportBroken(report_login_redirect, err)
		return fmt.Errorf("follow gosuslugi login: %w", err)
	}
	err = s.waitPageLoad(ctx)
	if err != nil {
		return err
	}

	err = s.requireLocation(report_login_redirect, s.urls.Gosuslugi.Login)
	if err != nil {
		s.tel.ReportBroken(report_login_redirect, err)
		return err
	}

	err = s.fill(ctx, locator_login_input, s.creds.Login)
	if err != nil {
		s.tel.ReportBroken(report_login_credentials, err)
		return err
	}
	err = s.fill(ctx, locator_password_input, s.creds.Password)
	if err != nil {
		s.tel.ReportBroken(report_login_credentials, err)
		return err
	}

	submit, err := s.find(nil, SERVICE_GOSUSLUGI, locator_login_button)
	if err != nil {
		s.tel.ReportBroken(report_login_submit, err)
		return err
	}
	err = s.waitInteraction(ctx)
	if err != nil {
		return err
	}
	err = s.session.Click(ctx, submit)
	if err != nil {
		s.tel.ReportBroken(report_login_submit, err)
		return fmt.Errorf("submit gosuslugi login: %w", err)
	}
	err = s.waitPageLoad(ctx)
	if err != nil {
		return err
	}

	return s.postponePrompt(ctx)
}

func (s Scraper) fill(ctx context.Context, name, text string) error {
	input, err := s.find(nil, SERVICE_GOSUSLUGI, name)
	if err != nil {
		return err
	}
	err = s.waitInteraction(ctx)
	if err != nil {
		return err
	}
	err = s.session.Input(input, text)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", SERVICE_GOSUSLUGI, name, err)
	}
	return nil
}

// postponePrompt dismisses the "set up later" prompt gosuslugi sometimes
// shows after signing in. Not seeing it is fine.
func (s Scraper) postponePrompt(ctx context.Context) error {
	locator, ok := s.locators.Service(SERVICE_GOSUSLUGI).Locator(locator_later_button)
	if !ok {
		return nil
	}
	later, found, err := dom.FindOptional(s.session, nil, locator)
	if err != nil {
		s.tel.ReportWarning(report_login_postpone_prompt, err)
		return nil
	}
	if !found {
		s.tel.ReportDebug("no postpone prompt after login")
		return nil
	}
	err = s.session.Click(ctx, later)
	if err != nil {
		s.tel.ReportWarning(report_login_postpone_prompt, err)
		return nil
	}
	return s.waitPageLoad(ctx)
}
