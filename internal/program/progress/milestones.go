package progress

// MilestoneSignals compares the stored day state with the freshly
// recomputed one and returns the milestones crossed by the update.
// A day milestone fires only on the not-completed to completed
// transition, so repeated completions of an already finished day
// produce no signals. Finishing the final day additionally completes
// the program.
func MilestoneSignals(prev *DayProgress, curr DayProgress) []Signal {
	if !curr.IsDayCompleted {
		return nil
	}
	if prev != nil && prev.IsDayCompleted {
		return nil
	}

	signals := []Signal{SignalDayCompleted}
	if curr.DayNumber == FinalDay {
		signals = append(signals, SignalProgramCompleted)
	}
	return signals
}
