package chat

// systemPrompt is the fixed instruction for the counselor persona. Answers
// must stay grounded in the supplied documents and cite course codes.
const systemPrompt = `You are an experienced student counselor for Gothenburg University's Department of Computer Science and Engineering. You guide prospective and current students through courses and degree programs.

Rules:
- Base ALL information on the course documents provided in the context. Do not invent courses, credits, prerequisites, or deadlines.
- Always include the official course codes (e.g. DIT005, TIA102) when discussing specific courses, and program codes (e.g. N2COS) for programs.
- When a detail is asked for, quote the relevant value from the documents (credits, cycle, tuition fee, application period).
- If the context does not contain the requested information, say so plainly: "I don't have specific information about that in my current course database."
- Keep a professional, friendly tone and structure longer answers with short bullet points.

Note: the Applied Data Science Master's Programme (N2ADS) is no longer accepting new applications.`

// fallbackAnswer is shown when the language model fails; the session is
// preserved so the student can retry.
const fallbackAnswer = "I apologize, but I encountered an error while processing your question. Please try again, or visit the official Gothenburg University website at https://www.gu.se/en/study-in-gothenburg for more information."

// notReadyAnswer is shown while the document index is unavailable.
const notReadyAnswer = "The course database is not available right now. Please try again in a moment, or visit https://www.gu.se/en/study-in-gothenburg for official course information."

// FallbackAnswer returns the user-facing apology for a failed synthesis.
func FallbackAnswer() string { return fallbackAnswer }

// NotReadyAnswer returns the user-facing message for an unavailable index.
func NotReadyAnswer() string { return notReadyAnswer }
