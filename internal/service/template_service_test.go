package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/instadm-io/instadm-backend/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	vars := service.TemplateVars{Username: "ann", Comment: "가격 알려주세요"}

	rendered := service.RenderTemplate("안녕하세요 {username}!", vars)
	assert.Equal(t, "안녕하세요 ann!", rendered)

	rendered = service.RenderTemplate("{username}: {comment}", vars)
	assert.Equal(t, "ann: 가격 알려주세요", rendered)
}

func TestRenderTemplateWithoutPlaceholders(t *testing.T) {
	rendered := service.RenderTemplate("고정 메시지입니다", service.TemplateVars{Username: "ann"})
	assert.Equal(t, "고정 메시지입니다", rendered)
}

func TestRenderTemplateRepeatedPlaceholder(t *testing.T) {
	rendered := service.RenderTemplate("{username} {username}", service.TemplateVars{Username: "bo"})
	assert.Equal(t, "bo bo", rendered)
}

func TestRenderTemplateEmpty(t *testing.T) {
	assert.Equal(t, "", service.RenderTemplate("", service.TemplateVars{Username: "ann"}))
}
