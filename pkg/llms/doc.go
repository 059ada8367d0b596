// Package llms provides unified support for interacting with chat models from various providers.
//
// Each subpackage implements Model for one provider. Providers that can take a raw,
// already templated prompt also implement Completer, which lets the generator apply
// a local chat template such as Zephyr or ChatML.
//
// The `llms.go` file contains the interfaces, `generatecontent.go` the message and
// response types, and `options.go` the per-call options.
package llms
