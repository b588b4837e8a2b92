package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

const pageSpeedEndpoint = "https://pagespeedonline.googleapis.com/pagespeedonline/v5/runPagespeed"

var errMissingLighthouse = errors.New("response has no lighthouseResult")

var pageSpeedCategories = []string{"seo", "accessibility", "best-practices", "performance"}

// PageSpeedChecker runs a Lighthouse report through Google PageSpeed Insights.
type PageSpeedChecker struct {
	HTTP     *HTTPChecker
	Settings domain.SettingsProvider
	Endpoint string
}

func NewPageSpeedChecker(h *HTTPChecker, settings domain.SettingsProvider) *PageSpeedChecker {
	return &PageSpeedChecker{HTTP: h, Settings: settings, Endpoint: pageSpeedEndpoint}
}

func (p *PageSpeedChecker) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	q := url.Values{}
	q.Set("url", m.URL)
	for _, c := range pageSpeedCategories {
		q.Add("category", c)
	}
	if p.Settings != nil {
		// missing key still works, just with a lower quota
		if s, err := p.Settings.Settings(ctx); err == nil && s.PageSpeedAPIKey != "" {
			q.Set("key", s.PageSpeedAPIKey)
		}
	}

	res, body := p.HTTP.fetch(ctx, p.Endpoint+"?"+q.Encode(), "", false)
	if !res.Status {
		return res
	}
	report, err := decodePageSpeed(body)
	if err != nil {
		res.Status = false
		res.Code = domain.CodeUnexpectedPayload
		res.Message = "decode pagespeed report: " + err.Error()
		res.Payload = nil
		return res
	}
	res.Payload = report
	return res
}

type lighthouseResponse struct {
	LighthouseResult *struct {
		Categories map[string]struct {
			Score float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

func decodePageSpeed(body []byte) (domain.PageSpeedReport, error) {
	var lr lighthouseResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return domain.PageSpeedReport{}, err
	}
	if lr.LighthouseResult == nil {
		return domain.PageSpeedReport{}, errMissingLighthouse
	}
	cat := lr.LighthouseResult.Categories
	audit := lr.LighthouseResult.Audits
	return domain.PageSpeedReport{
		Accessibility: cat["accessibility"].Score,
		BestPractices: cat["best-practices"].Score,
		SEO:           cat["seo"].Score,
		Performance:   cat["performance"].Score,
		Audits: domain.PageSpeedAudits{
			CLS: audit["cumulative-layout-shift"].NumericValue,
			SI:  audit["speed-index"].NumericValue,
			FCP: audit["first-contentful-paint"].NumericValue,
			LCP: audit["largest-contentful-paint"].NumericValue,
			TBT: audit["total-blocking-time"].NumericValue,
		},
	}, nil
}
