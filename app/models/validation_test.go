package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidateCreatePostInput(t *testing.T) {
	tests := []struct {
		name       string
		input      CreatePostInput
		wantFields map[string][]string
	}{
		{
			name:  "valid input",
			input: CreatePostInput{Title: "Başlık", Content: "Yeterince uzun içerik"},
		},
		{
			name:  "explicit published status",
			input: CreatePostInput{Title: "Başlık", Content: "Yeterince uzun içerik", Status: "published"},
		},
		{
			name:  "empty input",
			input: CreatePostInput{},
			wantFields: map[string][]string{
				"title":   {"Başlık zorunludur"},
				"content": {"İçerik zorunludur"},
			},
		},
		{
			name:  "short content",
			input: CreatePostInput{Title: "Başlık", Content: "kısa"},
			wantFields: map[string][]string{
				"content": {"İçerik en az 10 karakter olmalıdır"},
			},
		},
		{
			name:  "unknown status",
			input: CreatePostInput{Title: "Başlık", Content: "Yeterince uzun içerik", Status: "archived"},
			wantFields: map[string][]string{
				"status": {"Geçersiz durum değeri"},
			},
		},
		{
			name:  "title too long",
			input: CreatePostInput{Title: strings.Repeat("a", 256), Content: "Yeterince uzun içerik"},
			wantFields: map[string][]string{
				"title": {"Başlık en fazla 255 karakter olabilir"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.input)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantFields, ve.Fields)
		})
	}
}

func TestValidateUpdatePostInput(t *testing.T) {
	t.Run("absent fields are not validated", func(t *testing.T) {
		assert.NoError(t, Validate(&UpdatePostInput{}))
	})

	t.Run("supplied fields are validated", func(t *testing.T) {
		err := Validate(&UpdatePostInput{
			Title:   strPtr(""),
			Content: strPtr("kısa"),
			Status:  strPtr("deleted"),
		})

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, []string{"Başlık zorunludur"}, ve.Fields["title"])
		assert.Equal(t, []string{"İçerik en az 10 karakter olmalıdır"}, ve.Fields["content"])
		assert.Equal(t, []string{"Geçersiz durum değeri"}, ve.Fields["status"])
	})
}

func TestValidateFallsBackToTranslations(t *testing.T) {
	err := Validate(&RegisterInput{Name: strings.Repeat("a", 256), Email: "ali@example.com", Password: "12345678"})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Fields["name"], 1)
	assert.NotEmpty(t, ve.Fields["name"][0])
	assert.Empty(t, Message("name", "max"))

	err = Validate(&RegisterInput{Name: "Ali", Email: "ali@example.com", Password: "123"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Şifre en az 8 karakter olmalıdır"}, ve.Fields["password"])
}

func TestValidationErrorMessage(t *testing.T) {
	ve := NewValidationError("title", "Başlık zorunludur")
	assert.Equal(t, "Başlık zorunludur", ve.Error())

	ve.Add("content", "İçerik zorunludur")
	ve.Add("content", "İçerik en az 10 karakter olmalıdır")
	assert.Equal(t, "Başlık zorunludur (ve 2 hata daha)", ve.Error())
}

func TestInputNormalize(t *testing.T) {
	in := CreatePostInput{Title: "  Başlık ", Content: "\n içerik \t"}
	in.Normalize()
	assert.Equal(t, "Başlık", in.Title)
	assert.Equal(t, "içerik", in.Content)

	reg := RegisterInput{Name: " Ali ", Email: " Ali@Example.COM "}
	reg.Normalize()
	assert.Equal(t, "Ali", reg.Name)
	assert.Equal(t, "ali@example.com", reg.Email)
}
