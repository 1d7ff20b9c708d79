// Package transform converts between the authored model and the engine.
//
// DomainBuilder turns a model.ProcedureItem into a sequencer.Procedure and,
// once the procedure is set up, maps engine arena indices back to the
// authored items. GUIBuilder does the reverse for the expanded tree that
// setup produces. JobInfo is the serialisable snapshot of a job used by
// remote monitoring.
//
// Every tree is addressed by pre-order index. The expanded item tree built
// by GUIBuilder has exactly the shape of the engine arena, so walking it in
// pre-order yields the engine indices.
package transform
