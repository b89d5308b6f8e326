package ringba

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Selector ladders for the login flow. Order matters: most specific first,
// broadest last.
var (
	loginEntrySelectors = []string{
		"a[href*='login']",
		".menu a[href*='login']",
		"nav a[href*='login']",
	}
	emailSelectors = []string{
		"input[type='email']",
		"#email",
		"input[name='email']",
		"input[placeholder*='email' i]",
		"form input[type='text']",
	}
	submitSelectors = []string{
		"button[type='submit']",
		"input[type='submit']",
	}
)

const loginWaitTimeout = 60 * time.Second

// clickByTextJS clicks the first link or button whose text contains any of
// the given keywords (case-insensitive) and reports whether one was found.
func clickByTextJS(keywords ...string) string {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = fmt.Sprintf("%q", strings.ToLower(k))
	}
	return fmt.Sprintf(`
		(function() {
			var keywords = [%s];
			var candidates = document.querySelectorAll("a, button, [role='button']");
			for (var i = 0; i < candidates.length; i++) {
				var text = (candidates[i].innerText || '').trim().toLowerCase();
				for (var j = 0; j < keywords.length; j++) {
					if (text.indexOf(keywords[j]) !== -1) {
						candidates[i].click();
						return true;
					}
				}
			}
			return false;
		})()
	`, strings.Join(quoted, ", "))
}

// fillFirstVisibleInputJS is the last-resort email strategy: set the value
// on the first visible non-hidden input and fire the events a framework
// expects.
const fillFirstVisibleInputJS = `
	(function(value) {
		var inputs = document.querySelectorAll("input:not([type='hidden']):not([type='password'])");
		for (var i = 0; i < inputs.length; i++) {
			var el = inputs[i];
			var style = window.getComputedStyle(el);
			if (style.display === 'none' || style.visibility === 'hidden' || el.offsetParent === null) continue;
			el.focus();
			el.value = value;
			el.dispatchEvent(new Event('input', {bubbles: true}));
			el.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
		return false;
	})(%q)
`

// Login authenticates against the provider's web login. It lands on the
// marketing page first (arriving straight at the login route is an
// automation tell), follows a login entry point, fills credentials through
// selector ladders and waits for a post-login marker.
func (s *Scraper) Login(ctx context.Context) error {
	s.log.Info().Msg("logging in")

	if err := s.pg.Navigate(ctx, homeURL); err != nil {
		s.snap(ctx, "login_home_error")
		return &AuthError{Err: fmt.Errorf("home page navigation: %w", err)}
	}
	humanDelay(ctx, 2*time.Second, 3*time.Second)

	s.clickLoginEntry(ctx)

	// Wherever the entry point took us, make sure we are on the login page.
	if url, err := s.pg.Location(ctx); err != nil || !strings.Contains(url, "login") {
		s.log.Info().Msg("navigating directly to login page")
		if err := s.pg.Navigate(ctx, loginURL); err != nil {
			s.snap(ctx, "login_page_error")
			return &AuthError{Err: fmt.Errorf("login page navigation: %w", err)}
		}
		humanDelay(ctx, 2*time.Second, 3*time.Second)
	}
	s.snap(ctx, "login_page")

	attempted, err := s.fillCredentials(ctx)
	if err != nil {
		s.snap(ctx, "login_form_error")
		return &AuthError{Attempted: attempted, Err: err}
	}

	if err := s.submitLogin(ctx); err != nil {
		s.snap(ctx, "login_submit_error")
		return &AuthError{Attempted: attempted, Err: err}
	}

	if err := s.waitForDashboard(ctx); err != nil {
		s.snap(ctx, "login_wait_error")
		return &AuthError{Attempted: attempted, Err: err}
	}

	s.log.Info().Msg("logged in")
	return nil
}

// clickLoginEntry is best-effort: no entry point found just means we go to
// the login URL directly.
func (s *Scraper) clickLoginEntry(ctx context.Context) {
	strategies := make([]Strategy, 0, len(loginEntrySelectors)+1)
	for _, sel := range loginEntrySelectors {
		sel := sel
		strategies = append(strategies, Strategy{
			Name: "selector:" + sel,
			Run: func(ctx context.Context) error {
				return s.pg.Click(ctx, sel, 3*time.Second)
			},
		})
	}
	strategies = append(strategies, Strategy{
		Name: "text-scan:login",
		Run: func(ctx context.Context) error {
			return s.evalClicked(ctx, clickByTextJS("login"))
		},
	})

	if _, _, err := tryStrategies(ctx, s.log, "login entry point", strategies); err != nil {
		s.log.Warn().Err(err).Msg("no login entry point found on home page")
		return
	}
	humanDelay(ctx, 2*time.Second, 3*time.Second)
}

func (s *Scraper) fillCredentials(ctx context.Context) ([]string, error) {
	strategies := make([]Strategy, 0, len(emailSelectors)+1)
	for _, sel := range emailSelectors {
		sel := sel
		strategies = append(strategies, Strategy{
			Name: "selector:" + sel,
			Run: func(ctx context.Context) error {
				return s.pg.Fill(ctx, sel, s.cfg.RingbaEmail, 5*time.Second)
			},
		})
	}
	strategies = append(strategies, Strategy{
		Name: "first-visible-input",
		Run: func(ctx context.Context) error {
			return s.evalClicked(ctx, fmt.Sprintf(fillFirstVisibleInputJS, s.cfg.RingbaEmail))
		},
	})

	_, attempted, err := tryStrategies(ctx, s.log, "email field", strategies)
	if err != nil {
		return attempted, fmt.Errorf("could not find login form: %w", err)
	}

	if err := s.pg.Fill(ctx, "input[type='password']", s.cfg.RingbaPassword, 5*time.Second); err != nil {
		return attempted, fmt.Errorf("password field: %w", err)
	}
	return attempted, nil
}

func (s *Scraper) submitLogin(ctx context.Context) error {
	strategies := make([]Strategy, 0, len(submitSelectors)+1)
	for _, sel := range submitSelectors {
		sel := sel
		strategies = append(strategies, Strategy{
			Name: "selector:" + sel,
			Run: func(ctx context.Context) error {
				return s.pg.Click(ctx, sel, 5*time.Second)
			},
		})
	}
	strategies = append(strategies, Strategy{
		Name: "text-scan:login/sign in",
		Run: func(ctx context.Context) error {
			return s.evalClicked(ctx, clickByTextJS("login", "sign in"))
		},
	})

	if _, _, err := tryStrategies(ctx, s.log, "login submit", strategies); err != nil {
		return fmt.Errorf("could not submit login form: %w", err)
	}
	return nil
}

// dashboardMarkerJS reports whether a post-login dashboard indicator is
// visible anywhere on the page.
const dashboardMarkerJS = `
	(function() {
		var els = document.querySelectorAll("span, a, div[class*='dashboard']");
		for (var i = 0; i < els.length; i++) {
			if ((els[i].innerText || '').indexOf('Dashboard') !== -1) return true;
		}
		return false;
	})()
`

// waitForDashboard polls for either a "Dashboard" marker or a URL that has
// left the login path but stayed on the provider's domain. Either satisfies
// success. The page liveness probe doubles as early abort: a dead handle
// fails the wait immediately instead of running out the full timeout.
func (s *Scraper) waitForDashboard(ctx context.Context) error {
	deadline := time.Now().Add(loginWaitTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.alive(ctx) {
			return fmt.Errorf("page became unresponsive while waiting for dashboard")
		}

		var found bool
		if err := s.pg.Evaluate(ctx, dashboardMarkerJS, &found); err == nil && found {
			return nil
		}

		if url, err := s.pg.Location(ctx); err == nil &&
			strings.Contains(url, "ringba.com") && !strings.Contains(url, "login") {
			s.log.Info().Str("url", url).Msg("logged in, but not on dashboard page")
			return nil
		}

		humanDelay(ctx, 1500*time.Millisecond, 2500*time.Millisecond)
	}
	return fmt.Errorf("no dashboard marker within %s", loginWaitTimeout)
}

// evalClicked runs a click script and converts "nothing matched" into an
// error so it composes as a ladder strategy.
func (s *Scraper) evalClicked(ctx context.Context, js string) error {
	var clicked bool
	if err := s.pg.Evaluate(ctx, js, &clicked); err != nil {
		return err
	}
	if !clicked {
		return errNoMatch
	}
	return nil
}

var errNoMatch = errNoMatchType{}

type errNoMatchType struct{}

func (errNoMatchType) Error() string { return "no matching element" }
