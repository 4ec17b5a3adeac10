package config

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator used across the config package.
// Field names in errors follow the yaml tags so messages match what users wrote.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("basepath", func(fl validator.FieldLevel) bool {
			return validBasePath(fl.Field().String())
		})

		_ = v.RegisterValidation("assetprefix", func(fl validator.FieldLevel) bool {
			return validAssetPrefix(fl.Field().String())
		})

		validateInst = v
	})
	return validateInst
}

func validBasePath(p string) bool {
	if p == "" {
		return true
	}
	if !strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return false
	}
	if strings.ContainsAny(p, "?#\\ ") || strings.Contains(p, "//") {
		return false
	}
	return true
}

// validAssetPrefix accepts an absolute http(s) URL or a root-relative path.
func validAssetPrefix(p string) bool {
	if p == "" {
		return true
	}
	if strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") {
		return validBasePath(p)
	}
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != "" && u.RawQuery == "" && u.Fragment == ""
}

// ValidateConfig performs schema and cross-field validation on the configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return derrors.ValidationError("configuration is nil").Build()
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	// export cannot run an image service
	if cfg.Build.IsExport() && !cfg.Build.Images.Unoptimized {
		return derrors.ValidationError("build.images.unoptimized must be true when build.output is export").
			WithContext("field", "build.images.unoptimized").Build()
	}

	if cfg.Analytics.Enabled && cfg.Analytics.Src == "" {
		return derrors.ValidationError("analytics.src is required when analytics is enabled").
			WithContext("field", "analytics.src").Build()
	}

	if iv := cfg.Server.RebuildInterval; iv != "" {
		d, err := time.ParseDuration(iv)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryValidation, "invalid server.rebuild_interval").
				Fatal().WithContext("field", "server.rebuild_interval").Build()
		}
		if d < time.Second {
			return derrors.ValidationError("server.rebuild_interval must be at least 1s").
				WithContext("field", "server.rebuild_interval").Build()
		}
	}

	if (cfg.Notify.NATSURL == "") != (cfg.Notify.Subject == "") {
		return derrors.ValidationError("notify.nats_url and notify.subject must be set together").
			WithContext("field", "notify").Build()
	}

	return nil
}

// convertValidationError reports the first validator failure with its yaml field path.
func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if stderrors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		field := yamlFieldPath(fe)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (%s)", msg, fe.Param())
		}
		return derrors.WrapError(err, derrors.CategoryValidation, msg).
			Fatal().UserAction().
			WithContext("field", field).
			WithContext("value", fmt.Sprint(fe.Value())).
			Build()
	}
	return derrors.WrapError(err, derrors.CategoryValidation, "configuration validation failed").Fatal().Build()
}

// yamlFieldPath drops the root struct name from the namespace: "Config.build.base_path" -> "build.base_path".
func yamlFieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
