// Package iac drives the infrastructure-as-code binary (OpenTofu or
// Terraform) that provisions the cloud resources a cluster runs on. The
// binary is treated as opaque: kubelift runs apply and destroy in the
// configured working directory and streams the output into the run log,
// it never parses state or plan files.
package iac
