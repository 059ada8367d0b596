// Package generator turns a role-tagged transcript into a single completion.
//
// A Backend owns one model. The model is created lazily on the first call and
// every inference call is serialized, so a single Backend can be shared by
// several agents. Models that accept a raw prompt are driven through a local
// ChatTemplate; other models receive the messages and apply their native
// template.
package generator
