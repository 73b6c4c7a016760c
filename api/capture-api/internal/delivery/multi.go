// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_delivery

import (
	"context"
	"errors"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
)

// Multi hands the artifact to every delivery, even when an earlier one fails.
type Multi []internal_type.Delivery

func (m Multi) Deliver(ctx context.Context, artifact *internal_type.Artifact) error {
	var errs []error
	for _, d := range m {
		if d == nil {
			continue
		}
		if err := d.Deliver(ctx, artifact); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
