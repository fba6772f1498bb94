package http

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type schemas struct {
	login       *gojsonschema.Schema
	register    *gojsonschema.Schema
	requestOtp  *gojsonschema.Schema
	verifyOtp   *gojsonschema.Schema
	createOrder *gojsonschema.Schema
	updateOrder *gojsonschema.Schema
}

func loadSchema(name string) (*gojsonschema.Schema, error) {
	b, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
	if err != nil {
		return nil, err
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return s, nil
}

func mustLoadSchemas() *schemas {
	load := func(name string) *gojsonschema.Schema {
		s, err := loadSchema(name)
		if err != nil {
			panic(err)
		}
		return s
	}
	return &schemas{
		login:       load("login"),
		register:    load("register"),
		requestOtp:  load("request_otp"),
		verifyOtp:   load("verify_otp"),
		createOrder: load("create_order"),
		updateOrder: load("update_order"),
	}
}

// bindSchema validates the raw body against schema and decodes it into dst.
// It writes a 400 and returns false on failure.
func bindSchema(c *gin.Context, schema *gojsonschema.Schema, dst any) bool {
	raw, err := c.GetRawData()
	if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
		c.JSON(400, gin.H{"error": "invalid_request", "message": "request body is required"})
		return false
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": "request body is not valid JSON"})
		return false
	}
	if !res.Valid() {
		d := []string{}
		for _, e := range res.Errors() {
			d = append(d, e.String())
		}
		c.JSON(400, gin.H{"error": "validation_error", "message": "request body failed validation", "details": d})
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": "request body is not valid JSON"})
		return false
	}
	return true
}
