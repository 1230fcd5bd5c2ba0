package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type client struct {
	BaseURL string
	HTTP    *http.Client
}

func (c *client) init(timeout time.Duration) {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: timeout}
	}
}

func (c *client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, b, nil
}

func (c *client) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

func (c *client) issue(identity, title string) (int, []byte, error) {
	form := url.Values{"identite": {identity}, "intitule_certif": {title}}
	req, err := http.NewRequest(http.MethodPost, c.url("/creation"), strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) fetch() (int, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.url("/fond"), nil)
	if err != nil {
		return 0, nil, err
	}
	return c.do(req)
}

func (c *client) verify(name string, png []byte) (int, []byte, error) {
	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	fw, err := mpw.CreateFormFile("image", name)
	if err != nil {
		return 0, nil, err
	}
	if _, err := fw.Write(png); err != nil {
		return 0, nil, err
	}
	if err := mpw.Close(); err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.url("/verification"), &body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	return c.do(req)
}

func statusErr(op string, status int, body []byte) error {
	return fmt.Errorf("%s fallo: status=%d body=%s", op, status, strings.TrimSpace(string(body)))
}
