package scoring

// OneTimePoints scores the personal-status flags against the enabled
// criteria. A flag whose criterion is not enabled contributes nothing.
func OneTimePoints(criteria CriteriaSet, flags Flags) float64 {
	var points float64

	if flags.HasMarriage {
		points += criteria.flatPoints(KeyMarriage)
	}
	points += childrenPoints(criteria, flags.ChildrenCount)
	if flags.HasSynypiretisi {
		points += criteria.flatPoints(KeySynypiretisi)
	}
	if flags.HasEntopiotita {
		points += criteria.flatPoints(KeyEntopiotita)
	}
	if flags.HasStudies {
		points += criteria.flatPoints(KeyStudies)
	}
	if flags.HasIVF {
		points += criteria.flatPoints(KeyIVF)
	}
	if flags.HasFirstPreference {
		points += criteria.flatPoints(KeyFirstPreference)
	}

	return points
}

// childrenPoints adds First, Second and Third for the first three children
// and FourthPlus for each child after that.
func childrenPoints(criteria CriteriaSet, count int) float64 {
	cfg, ok := criteria.Children()
	if !ok || count <= 0 {
		return 0
	}

	var points float64
	for i := 1; i <= count; i++ {
		switch i {
		case 1:
			points += cfg.First
		case 2:
			points += cfg.Second
		case 3:
			points += cfg.Third
		default:
			points += cfg.FourthPlus
		}
	}
	return points
}
