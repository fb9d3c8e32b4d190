package analyze

const systemPrompt = "You are a professional meeting analysis assistant. " +
	"Provide clear, structured, and actionable analysis results."

var prompts = map[AnalysisType]string{
	TypeSummary: `Provide a detailed summary of the following meeting, covering:
1. Main topics and discussion points
2. Key positions and arguments
3. Consensus reached or conclusions drawn
4. Unresolved issues
Stay objective and structured.`,

	TypeActionItems: `Extract the concrete action items from the following meeting, covering:
1. Specific tasks to be carried out
2. Owners, where mentioned
3. Deadlines or timelines
4. A priority assessment
Present the result as a list.`,

	TypeKeyDecisions: `List every significant decision made in the following meeting, covering:
1. The decision itself
2. Its rationale and background
3. Expected impact
4. Execution plan and timeline
Order by importance.`,

	TypeFollowUp: `Identify the follow-up work implied by the following meeting, covering:
1. Topics that need another discussion
2. Information still to be gathered
3. People to involve next
4. A suggested agenda for the next session`,

	TypeParticipants: `Analyze the participants of the following meeting, covering:
1. Each speaker's contribution and focus areas
2. Interaction patterns between speakers
3. Balance of speaking time and engagement
4. Constructive suggestions for better collaboration`,

	TypeSentiment: `Assess the tone of the following meeting, covering:
1. Overall sentiment and how it evolved
2. Points of tension or disagreement
3. Moments of alignment and enthusiasm
4. An overall read on the health of the discussion`,
}

func promptFor(t AnalysisType) string {
	return prompts[t]
}
