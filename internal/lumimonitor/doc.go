// Package lumimonitor correlates pixel cluster counts with delivered
// luminosity per luminosity section (LS).
//
// The Monitor is driven by the host through its lifecycle hooks:
// BeginJob, BeginRun, Analyze (per event), EndLumiBlock, EndRun and EndJob.
// Results are written into a dqm.Store as Monitor Elements binned by slice
// index and kept as SliceRecords for persistence.
package lumimonitor
