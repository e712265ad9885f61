package transport

// DecisionPolicy resolves ambiguity when more than one candidate Request in
// one Run call would satisfy the same (Stream, From, To) job — e.g. two
// join plans independently asking for the same stream window. The
// generator stage applies it once per duplicate-request group, so the
// fetcher pool is only asked to do the work once. Grounded on the
// original's DecisionPolicy trait (src/decision_policy.rs), adapted here
// from picking a winning strategy among simultaneously-activated candidates
// to picking a winning request among duplicate job candidates.
type DecisionPolicy interface {
	Choose(candidates []Request) Request
}

// ChooseFirstPolicy always keeps the first-submitted candidate of a
// duplicate group, matching the original's only implementation
// (src/decision_policy/choose_first_policy.rs).
type ChooseFirstPolicy struct{}

func (ChooseFirstPolicy) Choose(candidates []Request) Request { return candidates[0] }

var _ DecisionPolicy = ChooseFirstPolicy{}

// dedupeRequests collapses duplicate (Stream, From, To) requests down to one
// per distinct job, in first-seen order, resolving each duplicate group with
// policy. A nil policy defaults to ChooseFirstPolicy.
func dedupeRequests(requests []Request, policy DecisionPolicy) []Request {
	if policy == nil {
		policy = ChooseFirstPolicy{}
	}
	groups := make(map[Request][]Request, len(requests))
	order := make([]Request, 0, len(requests))
	for _, r := range requests {
		if _, seen := groups[r]; !seen {
			order = append(order, r)
		}
		groups[r] = append(groups[r], r)
	}
	out := make([]Request, 0, len(order))
	for _, key := range order {
		out = append(out, policy.Choose(groups[key]))
	}
	return out
}
