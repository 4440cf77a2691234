package usecase

import (
	"context"
	"log/slog"

	"talent/internal/domain/certificate"
	"talent/internal/platform/metrics"
)

func (s *Service) VerifyCertificate(ctx context.Context, certificateID string) (certificate.Verification, error) {
	var out certificate.Verification
	err := s.read(func(u *unit) error {
		v, err := u.certs.Verify(ctx, certificateID)
		out = v
		return err
	})
	return out, err
}

// RenderCertificate draws and uploads the PDF for an issued certificate. It
// runs on the job queue after the issuing transaction commits.
func (s *Service) RenderCertificate(ctx context.Context, certificateID string) (any, error) {
	issuer := certificate.NewIssuer(certificate.NewStore(s.DB))
	issuer.Now = s.Now
	url, err := issuer.Publish(ctx, certificateID, s.Storage)
	if err != nil {
		s.Metrics.Inc(metrics.CertificateRenderErr)
		slog.Warn("certificate render failed", "certificate_id", certificateID, "err", err)
		return nil, err
	}
	return map[string]string{"certificateId": certificateID, "fileUrl": url}, nil
}
