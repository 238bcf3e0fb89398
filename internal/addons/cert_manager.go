package addons

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/kubelift/internal/addons/helm"
	"github.com/imamik/kubelift/internal/config"
)

const (
	certManagerRepoURL        = "https://charts.jetstack.io"
	certManagerChart          = "cert-manager"
	defaultCertManagerVersion = "v1.16.2"

	certManagerNamespace = "cert-manager"

	// ClusterIssuerName is referenced by ingress annotations across the
	// cluster, so it stays stable across rebuilds.
	ClusterIssuerName = "letsencrypt"

	acmeDirectoryURL = "https://acme-v02.api.letsencrypt.org/directory"

	cloudflareSecretName = "cloudflare-api-token" //nolint:gosec // secret name, not a credential
)

// CertManager builds the certificate controller addon.
func CertManager(cfg *config.Config) Addon {
	return Addon{
		Name:        "cert-manager",
		ReleaseName: "cert-manager",
		Namespace:   certManagerNamespace,
		RepoURL:     certManagerRepoURL,
		Chart:       certManagerChart,
		Version:     versionOr(cfg.Addons.CertManager.Version, defaultCertManagerVersion),
		Values:      buildCertManagerValues(cfg),
	}
}

func buildCertManagerValues(cfg *config.Config) helm.Values {
	replicas := 1
	if len(cfg.ControlPlaneNodes()) > 1 {
		replicas = 2
	}

	values := helm.Values{
		"crds": helm.Values{
			"enabled": true,
		},
		// The check job races the CNI on fresh clusters and the webhook is
		// probed by the issuer apply anyway.
		"startupapicheck": helm.Values{
			"enabled": false,
		},
		"replicaCount": replicas,
	}

	return helm.Merge(values, cfg.Addons.CertManager.Values)
}

// EnsureClusterIssuer creates the ACME issuer the ingress layer points at,
// along with the DNS credentials secret when DNS-01 is configured. The
// Cloudflare token is read from the environment variable named in the
// configuration; it is never stored in the configuration file.
func EnsureClusterIssuer(ctx context.Context, client Applier, cfg *config.Config) error {
	cm := cfg.Addons.CertManager
	if cm.AcmeEmail == "" {
		return fmt.Errorf("addons.cert_manager.acme_email is required to create the cluster issuer")
	}

	dns01 := cm.CloudflareTokenEnv != ""
	if dns01 {
		token := os.Getenv(cm.CloudflareTokenEnv)
		if token == "" {
			return fmt.Errorf("environment variable %s is empty, cannot create Cloudflare credentials", cm.CloudflareTokenEnv)
		}
		data := map[string][]byte{"api-token": []byte(token)}
		if err := client.CreateSecret(ctx, certManagerNamespace, cloudflareSecretName, data); err != nil {
			return fmt.Errorf("failed to create Cloudflare token secret: %w", err)
		}
	}

	if err := client.Apply(ctx, buildClusterIssuer(cm.AcmeEmail, dns01)); err != nil {
		return fmt.Errorf("failed to apply cluster issuer: %w", err)
	}
	return nil
}

// buildClusterIssuer renders the issuer manifest. DNS-01 through Cloudflare
// is preferred when credentials exist since it also covers wildcard
// certificates; otherwise HTTP-01 through the ingress controller.
func buildClusterIssuer(email string, dns01 bool) string {
	solver := `    - http01:
        ingress:
          ingressClassName: nginx`
	if dns01 {
		solver = fmt.Sprintf(`    - dns01:
        cloudflare:
          apiTokenSecretRef:
            name: %s
            key: api-token`, cloudflareSecretName)
	}

	return fmt.Sprintf(`apiVersion: cert-manager.io/v1
kind: ClusterIssuer
metadata:
  name: %s
spec:
  acme:
    email: %s
    server: %s
    privateKeySecretRef:
      name: %s-account-key
    solvers:
%s
`, ClusterIssuerName, email, acmeDirectoryURL, ClusterIssuerName, solver)
}
