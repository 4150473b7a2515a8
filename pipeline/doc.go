// Package pipeline wires the five analysis stages — profile loading, edge
// classification, function virtualization, CFG rewriting, and cycle
// segmentation — into a single Run call, threading a shared config.Config,
// *slog.Logger, and telemetry.Recorder through every stage boundary the
// way the teacher's executor threads its own run context through a DAG.
//
// Everything Run touches (core, classify, virtualize, transform, segment,
// invariant, kernelio) is safe to call directly by a caller that wants
// finer-grained control; Run exists for the common case of "run the whole
// thing and get a kernel document back."
package pipeline
