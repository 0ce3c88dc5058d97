package demoserver

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	askpablos "github.com/fawadss1/askpablos-api"
)

// stealthScript hides the webdriver flag before any page script runs.
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// renderIdleAfter is how long the network must stay quiet before a
// wait_for_load render is considered complete.
const renderIdleAfter = 2 * time.Second

// waitNetworkIdle signals once no network request has been active for
// idleAfter. Must be installed before navigation starts.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMu sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) == 0 {
				startTimer()
			}
		}
	})

	return idleChan
}

// renderTarget fetches the target in a headless browser, honoring the
// wait_for_load, screenshot and js_strategy options. A js_strategy of false
// means no JS rendering at all, so the request degrades to a plain fetch.
func (s *DemoServer) renderTarget(ctx context.Context, req proxyRequest) (*proxyResponse, error) {
	if v, ok := req.Options["js_strategy"].(bool); ok && !v {
		return s.fetchTarget(ctx, http.MethodGet, req, nil)
	}

	target, err := buildTargetURL(req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	bctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var idle <-chan struct{}
	if optBool(req.Options, "wait_for_load") {
		idle = waitNetworkIdle(bctx, renderIdleAfter)
	}

	// Track the status of the main document response.
	var docStatus int64 = http.StatusOK
	chromedp.ListenTarget(bctx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			atomic.StoreInt64(&docStatus, resp.Response.Status)
		}
	})

	tasks := chromedp.Tasks{network.Enable()}
	if sv, ok := req.Options["js_strategy"].(bool); ok && sv {
		tasks = append(tasks, chromedp.ActionFunc(func(c context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(c)
			return err
		}))
	}
	tasks = append(tasks, chromedp.Navigate(target))

	if err := chromedp.Run(bctx, tasks); err != nil {
		return nil, err
	}

	if idle != nil {
		select {
		case <-idle:
		case <-bctx.Done():
			return nil, bctx.Err()
		}
	}

	var html, finalURL string
	if err := chromedp.Run(bctx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		return nil, err
	}

	env := &proxyResponse{
		StatusCode: int(atomic.LoadInt64(&docStatus)),
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
		Content:    html,
		URL:        finalURL,
		Encoding:   "utf-8",
	}

	if optBool(req.Options, "screenshot") {
		var shot []byte
		if err := chromedp.Run(bctx, chromedp.CaptureScreenshot(&shot)); err != nil {
			s.logger.Warn("screenshot capture failed",
				askpablos.Field{Key: "url", Value: target},
				askpablos.Field{Key: "error", Value: err.Error()})
		} else {
			env.Screenshot = base64.StdEncoding.EncodeToString(shot)
		}
	}

	annotateTitle(env)
	return env, nil
}
