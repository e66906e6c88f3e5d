package handlers

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"quillpress/internal/models"
	"quillpress/internal/store"
)

// Validation limits for post, category, settings and user fields.
const (
	maxTitleLen        = 300
	maxSlugLen         = 300
	maxContentLen      = 100_000
	maxExcerptLen      = 1_000
	maxSEODescLen      = 500
	maxSEOKeywords     = 20
	maxTags            = 50
	maxCategoryNameLen = 100
	maxDescriptionLen  = 1_000
	maxSiteNameLen     = 200
	maxUserNameLen     = 200
)

// notBlank rejects a present but whitespace-only string. Absent fields pass;
// the store decides whether they are required.
var notBlank = validation.By(func(value any) error {
	var s string
	switch v := value.(type) {
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	case string:
		s = v
	default:
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
})

// message flattens a validation error into the envelope's error string.
func message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// validatePost checks post input lengths. Required fields and status
// values are checked by the store.
func validatePost(in store.PostInput) string {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.RuneLength(0, maxTitleLen)),
		validation.Field(&in.Slug, validation.RuneLength(0, maxSlugLen)),
		validation.Field(&in.Content, validation.RuneLength(0, maxContentLen)),
		validation.Field(&in.Excerpt, validation.RuneLength(0, maxExcerptLen)),
		validation.Field(&in.Tags, validation.Length(0, maxTags)),
	)
	if err == nil && in.SEO != nil {
		err = validateSEO(in.SEO)
	}
	return message(err)
}

func validateSEO(seo *models.SEO) error {
	err := validation.ValidateStruct(seo,
		validation.Field(&seo.Title, validation.RuneLength(0, maxTitleLen)),
		validation.Field(&seo.Description, validation.RuneLength(0, maxSEODescLen)),
		validation.Field(&seo.Keywords, validation.Length(0, maxSEOKeywords)),
	)
	if err != nil {
		return validation.Errors{"seo": err}
	}
	return nil
}

func validateCategory(in store.CategoryInput) string {
	return message(validation.ValidateStruct(&in,
		validation.Field(&in.Name, notBlank, validation.RuneLength(0, maxCategoryNameLen)),
		validation.Field(&in.Slug, validation.RuneLength(0, maxSlugLen)),
		validation.Field(&in.Description, validation.RuneLength(0, maxDescriptionLen)),
	))
}

// validateSettings checks site settings lengths. postsPerPage bounds and
// an empty site name are checked by the store. Image URLs are stored as
// given.
func validateSettings(in store.SiteSettingsInput) string {
	return message(validation.ValidateStruct(&in,
		validation.Field(&in.SiteName, validation.RuneLength(0, maxSiteNameLen)),
		validation.Field(&in.SiteDescription, validation.RuneLength(0, maxDescriptionLen)),
	))
}

func validateUserUpdate(req userUpdateRequest) string {
	return message(validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.RuneLength(0, maxUserNameLen)),
		validation.Field(&req.Email, is.EmailFormat.Error("must be a valid email address")),
	))
}
