// internal/browser/session/interaction.go
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Navigate loads url and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL", zap.String("url", url))

	timeout := s.navigationTimeout()
	err := s.runActions(ctx, timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("navigation to %s timed out after %s: %w", url, timeout, err)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Click scrolls the matching element into view and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Clicking element", zap.String("selector", selector))

	by := queryOption(selector)
	err := s.runActions(ctx, s.actionTimeout(),
		s.requireElement(selector),
		chromedp.ScrollIntoView(selector, by),
		chromedp.WaitVisible(selector, by),
		chromedp.Click(selector, by),
	)
	if err != nil {
		return fmt.Errorf("click failed for selector '%s': %w", selector, err)
	}
	return nil
}

// Tap is a click in a desktop browser.
func (s *Session) Tap(ctx context.Context, selector string) error {
	return s.Click(ctx, selector)
}

// SetValue clears the matching field and types text into it, firing the key
// events frameworks listen for.
func (s *Session) SetValue(ctx context.Context, selector string, text string) error {
	s.logger.Debug("Setting element value", zap.String("selector", selector), zap.Int("text_length", len(text)))

	by := queryOption(selector)
	err := s.runActions(ctx, s.actionTimeout(),
		s.requireElement(selector),
		chromedp.ScrollIntoView(selector, by),
		chromedp.WaitVisible(selector, by),
		chromedp.Focus(selector, by),
		chromedp.SetValue(selector, "", by),
		chromedp.SendKeys(selector, text, by),
	)
	if err != nil {
		return fmt.Errorf("set value failed for selector '%s': %w", selector, err)
	}
	return nil
}

// requireElement fails fast with a descriptive error when nothing matches,
// instead of waiting for the action timeout.
func (s *Session) requireElement(selector string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(selector, &nodes, queryOption(selector), chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return fmt.Errorf("no element found for selector %q", selector)
		}
		return nil
	})
}
